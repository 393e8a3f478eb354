// Package authstate tracks the signed-in user and role for a client session.
//
// A Context is created per session, started once, and then read by whatever
// renders for that session. Readiness resolves exactly once: on the initial
// probe, on the first session event, or when the readiness timeout fires,
// whichever comes first.
package authstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/retry"
)

type EventKind string

const (
	EventInitialSession EventKind = "initial_session"
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
)

// Session is what the auth backend reports about the signed-in user.
type Session struct {
	UserID       string
	Email        string
	MetadataRole enums.Role
	AccessToken  string
}

type Event struct {
	Kind    EventKind
	Session *Session
}

// RoleSource records where the current role came from.
type RoleSource string

const (
	RoleSourceNone          RoleSource = "none"
	RoleSourceMetadata      RoleSource = "metadata"
	RoleSourceAuthoritative RoleSource = "authoritative"
	RoleSourceDefault       RoleSource = "default"
)

// Snapshot is an immutable copy of the context state.
type Snapshot struct {
	Ready      bool
	User       *Session
	Role       enums.Role
	RoleSource RoleSource
}

// SignedIn reports whether a user is attached.
func (s Snapshot) SignedIn() bool { return s.User != nil }

// SessionProber fetches the current session; a nil session with nil error means signed out.
type SessionProber interface {
	Session(ctx context.Context) (*Session, error)
}

// RoleFetcher loads the authoritative role for a user.
type RoleFetcher interface {
	FetchRole(ctx context.Context, userID string) (enums.Role, error)
}

// Refresher re-renders from a snapshot. It is called repeatedly and must be idempotent.
type Refresher func(Snapshot)

type Options struct {
	ReadyTimeout  time.Duration
	WatchdogDelay time.Duration
	RolePolicy    retry.Policy
	Logger        *logger.Logger
}

// OptionsFromConfig maps session config onto Options.
func OptionsFromConfig(cfg config.SessionConfig, logg *logger.Logger) Options {
	return Options{
		ReadyTimeout:  cfg.ReadyTimeout,
		WatchdogDelay: cfg.WatchdogDelay,
		RolePolicy:    retry.Linear(cfg.RoleFetchAttempts, cfg.RoleFetchBackoff, cfg.RoleFetchTimeout),
		Logger:        logg,
	}
}

func (o Options) withDefaults() Options {
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 6 * time.Second
	}
	if o.WatchdogDelay <= 0 {
		o.WatchdogDelay = 2 * time.Second
	}
	if o.RolePolicy.MaxAttempts == 0 {
		o.RolePolicy = retry.Linear(3, time.Second, 5*time.Second)
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}

type Context struct {
	prober  SessionProber
	fetcher RoleFetcher
	events  <-chan Event
	refresh Refresher
	opts    Options

	mu         sync.RWMutex
	user       *Session
	role       enums.Role
	roleSource RoleSource
	generation uint64

	notifyMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once
	startOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a Context. events may be nil when the backend does not push session changes.
func New(prober SessionProber, fetcher RoleFetcher, events <-chan Event, refresh Refresher, opts Options) (*Context, error) {
	if prober == nil {
		return nil, errors.New("session prober required")
	}
	if fetcher == nil {
		return nil, errors.New("role fetcher required")
	}
	if refresh == nil {
		refresh = func(Snapshot) {}
	}
	return &Context{
		prober:     prober,
		fetcher:    fetcher,
		events:     events,
		refresh:    refresh,
		opts:       opts.withDefaults(),
		role:       enums.RoleCustomer,
		roleSource: RoleSourceNone,
		ready:      make(chan struct{}),
	}, nil
}

// Start launches the probe, the event consumer, the readiness timeout and the
// refresh watchdog. Calling it more than once has no effect.
func (c *Context) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.wg.Add(4)
		go c.probe(ctx)
		go c.consume(ctx)
		go c.readyTimeout(ctx)
		go c.watchdog(ctx)
	})
}

// Wait blocks until every goroutine launched by Start and every role fetch has returned.
func (c *Context) Wait() {
	c.wg.Wait()
}

// Ready is closed once the auth state is known or the readiness timeout passed.
func (c *Context) Ready() <-chan struct{} {
	return c.ready
}

// Await blocks until Ready or ctx is done.
func (c *Context) Await(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{Role: c.role, RoleSource: c.roleSource, Ready: c.isReady()}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	return snap
}

func (c *Context) Role() enums.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

func (c *Context) isReady() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

func (c *Context) markReady() {
	c.readyOnce.Do(func() { close(c.ready) })
}

// notify runs the refresher one call at a time. The snapshot is taken under
// the same lock, so the last call always sees the latest state.
func (c *Context) notify() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.refresh(c.Snapshot())
}

func (c *Context) probe(ctx context.Context) {
	defer c.wg.Done()
	sess, err := c.prober.Session(ctx)
	if err != nil {
		c.opts.Logger.Error(ctx, "authstate: session probe failed", err)
		c.markReady()
		c.notify()
		return
	}
	if sess == nil {
		c.clear()
	} else {
		c.apply(ctx, sess)
	}
	c.markReady()
	c.notify()
}

func (c *Context) consume(ctx context.Context) {
	defer c.wg.Done()
	if c.events == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			c.handle(ctx, ev)
		}
	}
}

func (c *Context) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventSignedOut:
		c.clear()
	case EventInitialSession, EventSignedIn, EventTokenRefreshed:
		if ev.Session == nil {
			c.clear()
		} else {
			c.apply(ctx, ev.Session)
		}
	default:
		c.opts.Logger.Warn(c.opts.Logger.WithField(ctx, "event", string(ev.Kind)), "authstate: unknown session event")
		return
	}
	c.markReady()
	c.notify()
}

func (c *Context) readyTimeout(ctx context.Context) {
	defer c.wg.Done()
	timer := time.NewTimer(c.opts.ReadyTimeout)
	defer timer.Stop()
	select {
	case <-c.ready:
	case <-ctx.Done():
		c.markReady()
	case <-timer.C:
		c.opts.Logger.Warn(ctx, "authstate: readiness timed out, proceeding")
		c.markReady()
		c.notify()
	}
}

func (c *Context) watchdog(ctx context.Context) {
	defer c.wg.Done()
	timer := time.NewTimer(c.opts.WatchdogDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
		c.notify()
	}
}

func (c *Context) clear() {
	c.mu.Lock()
	c.generation++
	c.user = nil
	c.role = enums.RoleCustomer
	c.roleSource = RoleSourceNone
	c.mu.Unlock()
}

// apply installs the session with its optimistic role and starts the
// authoritative role fetch. A token refresh for the same user keeps the
// resolved role and skips the fetch.
func (c *Context) apply(ctx context.Context, sess *Session) {
	s := *sess

	c.mu.Lock()
	if c.user != nil && c.user.UserID == s.UserID && c.roleSource == RoleSourceAuthoritative {
		c.user = &s
		c.mu.Unlock()
		return
	}
	c.generation++
	gen := c.generation
	c.user = &s
	c.role, c.roleSource = fallbackRole(s.MetadataRole)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.resolveRole(ctx, gen, s)
}

func (c *Context) resolveRole(ctx context.Context, gen uint64, sess Session) {
	defer c.wg.Done()

	var role enums.Role
	err := c.opts.RolePolicy.Do(ctx, func(ctx context.Context, attempt int) error {
		r, err := c.fetcher.FetchRole(ctx, sess.UserID)
		if err != nil {
			c.opts.Logger.Debug(c.opts.Logger.WithField(ctx, "attempt", attempt), "authstate: role fetch failed")
			return err
		}
		if !r.IsValid() {
			return errors.New("role not assigned yet")
		}
		role = r
		return nil
	})

	source := RoleSourceAuthoritative
	if err != nil {
		c.opts.Logger.Warn(c.opts.Logger.WithUserID(ctx, sess.UserID), "authstate: authoritative role unavailable, using fallback")
		role, source = fallbackRole(sess.MetadataRole)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.role, c.roleSource = role, source
	c.mu.Unlock()
	c.notify()
}

func fallbackRole(metadata enums.Role) (enums.Role, RoleSource) {
	if metadata.IsValid() {
		return metadata, RoleSourceMetadata
	}
	return enums.RoleCustomer, RoleSourceDefault
}
