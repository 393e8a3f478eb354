package authstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/retry"
)

type stubProber struct {
	sess  *Session
	err   error
	block chan struct{}
}

func (s stubProber) Session(ctx context.Context) (*Session, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.sess, s.err
}

type stubFetcher struct {
	calls    int32
	failures int32
	role     enums.Role
}

func (f *stubFetcher) FetchRole(ctx context.Context, userID string) (enums.Role, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return "", errors.New("row not found")
	}
	return f.role, nil
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) refresh(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func fastOptions() Options {
	return Options{
		ReadyTimeout:  200 * time.Millisecond,
		WatchdogDelay: 20 * time.Millisecond,
		RolePolicy:    retry.Linear(3, time.Millisecond, time.Second),
	}
}

func TestReadyResolvesOnceWhenProbeAndEventRace(t *testing.T) {
	events := make(chan Event, 1)
	sess := &Session{UserID: "u1", MetadataRole: enums.RoleStore}
	events <- Event{Kind: EventInitialSession, Session: sess}
	close(events)

	rec := &recorder{}
	c, err := New(stubProber{sess: sess}, &stubFetcher{role: enums.RoleStore}, events, rec.refresh, fastOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Start(ctx)
	c.Start(ctx)

	require.NoError(t, c.Await(ctx))
	c.Wait()

	snap := c.Snapshot()
	assert.True(t, snap.Ready)
	assert.Equal(t, enums.RoleStore, snap.Role)
	assert.Equal(t, RoleSourceAuthoritative, snap.RoleSource)
	// probe, event, role resolution and the watchdog all refresh.
	assert.GreaterOrEqual(t, rec.count(), 3)
}

func TestRefresherCallsAreSerializedAndEndOnLatestState(t *testing.T) {
	events := make(chan Event, 3)
	sess := &Session{UserID: "u1", MetadataRole: enums.RoleCustomer}
	events <- Event{Kind: EventInitialSession, Session: sess}
	events <- Event{Kind: EventTokenRefreshed, Session: sess}
	events <- Event{Kind: EventTokenRefreshed, Session: sess}
	close(events)

	// Plain fields: the refresher itself takes no lock.
	var (
		calls   int
		last    Snapshot
		running int32
		overlap bool
	)
	refresh := func(s Snapshot) {
		if atomic.AddInt32(&running, 1) > 1 {
			overlap = true
		}
		calls++
		last = s
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&running, -1)
	}

	opts := fastOptions()
	opts.WatchdogDelay = time.Millisecond
	c, err := New(stubProber{sess: sess}, &stubFetcher{role: enums.RoleStore}, events, refresh, opts)
	require.NoError(t, err)

	c.Start(context.Background())
	c.Wait()

	assert.False(t, overlap, "refresher ran concurrently")
	assert.GreaterOrEqual(t, calls, 3)
	assert.Equal(t, enums.RoleStore, last.Role)
	assert.Equal(t, RoleSourceAuthoritative, last.RoleSource)
}

func TestRoleFallsBackToMetadataAfterRetries(t *testing.T) {
	fetcher := &stubFetcher{failures: 100}
	c, err := New(stubProber{sess: &Session{UserID: "u1", MetadataRole: enums.RoleStore}}, fetcher, nil, nil, fastOptions())
	require.NoError(t, err)

	c.Start(context.Background())
	c.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&fetcher.calls))
	snap := c.Snapshot()
	assert.Equal(t, enums.RoleStore, snap.Role)
	assert.Equal(t, RoleSourceMetadata, snap.RoleSource)
}

func TestRoleDefaultsToCustomerWithoutMetadata(t *testing.T) {
	c, err := New(stubProber{sess: &Session{UserID: "u1"}}, &stubFetcher{failures: 100}, nil, nil, fastOptions())
	require.NoError(t, err)

	c.Start(context.Background())
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, enums.RoleCustomer, snap.Role)
	assert.Equal(t, RoleSourceDefault, snap.RoleSource)
	assert.True(t, snap.SignedIn())
}

func TestAuthoritativeRoleWinsAfterTransientFailure(t *testing.T) {
	fetcher := &stubFetcher{failures: 1, role: enums.RoleDelivery}
	c, err := New(stubProber{sess: &Session{UserID: "u1", MetadataRole: enums.RoleCustomer}}, fetcher, nil, nil, fastOptions())
	require.NoError(t, err)

	c.Start(context.Background())
	c.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
	assert.Equal(t, enums.RoleDelivery, c.Role())
}

func TestReadinessTimesOutWhenProbeHangs(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	opts := fastOptions()
	opts.ReadyTimeout = 30 * time.Millisecond
	c, err := New(stubProber{block: block}, &stubFetcher{}, nil, nil, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	select {
	case <-c.Ready():
	case <-time.After(time.Second):
		t.Fatal("readiness never resolved")
	}
	assert.False(t, c.Snapshot().SignedIn())
}

func TestProbeErrorStillResolvesReadiness(t *testing.T) {
	c, err := New(stubProber{err: errors.New("network down")}, &stubFetcher{}, nil, nil, fastOptions())
	require.NoError(t, err)

	c.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Await(ctx))
	assert.False(t, c.Snapshot().SignedIn())
}

func TestSignedOutEventClearsUser(t *testing.T) {
	events := make(chan Event)
	c, err := New(stubProber{sess: &Session{UserID: "u1", MetadataRole: enums.RoleStore}}, &stubFetcher{role: enums.RoleStore}, events, nil, fastOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	require.NoError(t, c.Await(ctx))

	events <- Event{Kind: EventSignedOut}
	require.Eventually(t, func() bool { return !c.Snapshot().SignedIn() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, enums.RoleCustomer, c.Role())

	cancel()
	c.Wait()
}

func TestAwaitHonorsContext(t *testing.T) {
	c, err := New(stubProber{}, &stubFetcher{}, nil, nil, fastOptions())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Await(ctx), context.Canceled)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, &stubFetcher{}, nil, nil, Options{})
	assert.Error(t, err)
	_, err = New(stubProber{}, nil, nil, nil, Options{})
	assert.Error(t, err)
}
