package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func authRequest(path, body, remote string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = remote
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRateLimitPreservesBody(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 2)
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `"email":"tester@example.com"`)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authRequest("/api/v1/auth/login", `{"email":"tester@example.com","password":"secret"}`, "1.2.3.4:5678"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitEmailIsCaseInsensitive(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, newFakeRateStore(), nil)(okHandler())

	emails := []string{"Blocked@Example.com", " blocked@example.com", "BLOCKED@EXAMPLE.COM"}
	for i, email := range emails {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authRequest("/api/v1/auth/login", `{"email":"`+email+`","password":"secret"}`, "1.2.3.4:5678"))
		if i < 2 {
			assert.Equal(t, http.StatusOK, rec.Code)
			continue
		}
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))

		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)
	}
}

func TestAuthRateLimitIPUsesForwardedHeader(t *testing.T) {
	policy := NewAuthRateLimitPolicy("signup", 5*time.Minute, 1, 0)
	store := newFakeRateStore()
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	first := authRequest("/api/v1/auth/signup", `{"email":"a@example.com"}`, "10.0.0.1:1234")
	first.Header.Set("X-Forwarded-For", "garbage, 41.66.1.2, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	second := authRequest("/api/v1/auth/signup", `{"email":"b@example.com"}`, "10.0.0.2:1234")
	second.Header.Set("X-Forwarded-For", "41.66.1.2")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "300", rec.Header().Get("Retry-After"))

	assert.Contains(t, store.counts, "ip:signup:41.66.1.2")
}

func TestAuthRateLimitStoreFailureIsUnavailable(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", time.Minute, 5, 5), store, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authRequest("/api/v1/auth/login", `{"email":"x@example.com"}`, "1.2.3.4:1"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	handler := AuthRateLimit(NewAuthRateLimitPolicy("", 0, 1, 1), nil, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authRequest("/api/v1/auth/login", `{}`, "1.2.3.4:1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
