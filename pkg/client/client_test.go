package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourwae/fastget-backend/pkg/authstate"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/retry"
	"github.com/yourwae/fastget-backend/pkg/types"
)

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeErr(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": msg,
		"error":   map[string]any{"code": code, "message": msg},
	})
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Policy:  retry.Linear(3, time.Millisecond, 2*time.Second),
	})
	require.NoError(t, err)
	return c
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"storeName":        "store_name",
		"deliveryFeePerKm": "delivery_fee_per_km",
		"isVerified":       "is_verified",
		"orderID":          "order_id",
		"URLPath":          "url_path",
		"already_snake":    "already_snake",
		"name":             "name",
		"":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestNormalizePrefersSnakeCase(t *testing.T) {
	raw := json.RawMessage(`[{"storeName":"camel","store_name":"snake","isActive":true,"address":{"zipCode":"0000"}}]`)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(Normalize(raw), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "snake", out[0]["store_name"])
	assert.Equal(t, true, out[0]["is_active"])
	assert.Equal(t, map[string]any{"zip_code": "0000"}, out[0]["address"])
	assert.NotContains(t, out[0], "storeName")

	assert.Equal(t, "not json", string(Normalize(json.RawMessage("not json"))))
}

func TestListStoresFallsBackWhenRefused(t *testing.T) {
	var calls []string
	var mu sync.Mutex
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.RawQuery)
		mu.Unlock()
		if r.URL.Query().Get("verified") == "true" {
			writeErr(w, http.StatusForbidden, "FORBIDDEN", "permission denied")
			return
		}
		writeData(w, http.StatusOK, []map[string]any{
			{"id": uuid.NewString(), "name": "Mama's", "isVerified": false, "isActive": true, "baseDeliveryFee": 5},
		})
	}))

	stores, err := c.ListStores(context.Background(), StoreFilter{Category: enums.StoreCategoryGrocery})
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.True(t, stores[0].IsActive)
	assert.Equal(t, "5", stores[0].BaseDeliveryFee.String())
	assert.Equal(t, []string{"category=grocery&verified=true", "category=grocery"}, calls)
}

func TestRetriesTransientFailures(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			writeErr(w, http.StatusServiceUnavailable, "DEPENDENCY_ERROR", "database unavailable")
			return
		}
		writeData(w, http.StatusOK, []map[string]any{{"id": uuid.NewString(), "name": "Hohoe"}})
	}))

	towns, err := c.ListTowns(context.Background())
	require.NoError(t, err)
	assert.Len(t, towns, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeErr(w, http.StatusConflict, "CONFLICT", "This email is already registered. Please log in instead.")
	}))

	_, err := c.Signup(context.Background(), Signup{Email: "ama@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	access, _ := c.Tokens()
	assert.Empty(t, access)
}

func TestBareStatusMapsToCode(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	_, err := c.GetProduct(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestPlaceOrderKeepsIdempotencyKeyAcrossRetries(t *testing.T) {
	var (
		mu   sync.Mutex
		keys []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		n := len(keys)
		mu.Unlock()
		if n == 1 {
			writeErr(w, http.StatusBadGateway, "DEPENDENCY_ERROR", "upstream")
			return
		}
		writeData(w, http.StatusCreated, map[string]any{
			"order": map[string]any{"id": uuid.NewString(), "orderNumber": "FG-1-1", "status": "pending"},
		})
	}))
	c.SetTokens("token", "refresh")

	res, err := c.PlaceOrder(context.Background(), PlaceOrder{
		DeliveryAddress: types.Address{Street: "4 Bankoe Road", City: "Hohoe", State: "Volta"},
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, "FG-1-1", res.Order.OrderNumber)
	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
}

func TestLoginDrivesAuthState(t *testing.T) {
	userID := uuid.New()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			writeData(w, http.StatusOK, map[string]any{
				"accessToken":   "access-1",
				"refresh_token": "refresh-1",
				"role":          "store",
				"user":          map[string]any{"id": userID, "email": "shop@example.com", "role": "store"},
			})
		case "/api/v1/auth/me":
			if r.Header.Get("Authorization") != "Bearer access-1" {
				writeErr(w, http.StatusUnauthorized, "UNAUTHORIZED", "User not logged in")
				return
			}
			writeData(w, http.StatusOK, map[string]any{
				"user":          map[string]any{"id": userID, "email": "shop@example.com", "role": "store"},
				"role":          "store",
				"metadata_role": "customer",
			})
		default:
			http.NotFound(w, r)
		}
	}))

	sess, err := c.Session(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess, "no token means signed out")

	res, err := c.Login(context.Background(), "shop@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", res.AccessToken)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var last atomic.Value
	state, err := authstate.New(c, c, c.Events(), func(s authstate.Snapshot) { last.Store(s) }, authstate.Options{
		ReadyTimeout:  time.Second,
		WatchdogDelay: 10 * time.Millisecond,
		RolePolicy:    retry.Linear(2, time.Millisecond, time.Second),
	})
	require.NoError(t, err)
	state.Start(ctx)
	require.NoError(t, state.Await(ctx))

	require.Eventually(t, func() bool {
		snap := state.Snapshot()
		return snap.SignedIn() && snap.RoleSource == authstate.RoleSourceAuthoritative
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, enums.RoleStore, state.Role())

	role, err := c.FetchRole(context.Background(), uuid.NewString())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "got role %s err %v", role, err)

	cancel()
	state.Wait()
}

func TestTownStores(t *testing.T) {
	var mem MemoryTownStore
	require.NoError(t, mem.SetTown(" Hohoe "))
	town, err := mem.Town()
	require.NoError(t, err)
	assert.Equal(t, "Hohoe", town)
	require.NoError(t, mem.ClearTown())
	town, _ = mem.Town()
	assert.Empty(t, town)

	path := filepath.Join(t.TempDir(), "prefs", "town.json")
	store, err := NewFileTownStore(path)
	require.NoError(t, err)
	town, err = store.Town()
	require.NoError(t, err)
	assert.Empty(t, town)

	require.NoError(t, store.SetTown("Sanko"))
	reopened, err := NewFileTownStore(path)
	require.NoError(t, err)
	town, err = reopened.Town()
	require.NoError(t, err)
	assert.Equal(t, "Sanko", town)

	require.NoError(t, reopened.ClearTown())
	require.NoError(t, reopened.ClearTown())
	town, _ = store.Town()
	assert.Empty(t, town)
}

func TestUpdateProfileSendsPatch(t *testing.T) {
	var got ProfileUpdate
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/v1/auth/me" {
			writeErr(w, http.StatusNotFound, "NOT_FOUND", "no route")
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeData(w, http.StatusOK, map[string]any{"first_name": got.FirstName, "date_of_birth": got.DateOfBirth})
	}))

	dob := "2000-02-29"
	user, err := c.UpdateProfile(context.Background(), ProfileUpdate{FirstName: "Ama", LastName: "Owusu", Phone: "0247654321", DateOfBirth: &dob})
	require.NoError(t, err)
	assert.Equal(t, "Ama", user.FirstName)
	require.NotNil(t, user.DateOfBirth)
	assert.Equal(t, dob, *user.DateOfBirth)
	assert.Equal(t, "Owusu", got.LastName)
}
