package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pinger is any dependency that can answer a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Report is the readiness payload. Checks maps a dependency name to its status.
type Report struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Checker pings every registered dependency concurrently.
type Checker struct {
	deps    map[string]Pinger
	timeout time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{deps: map[string]Pinger{}, timeout: timeout}
}

// Register adds a dependency; a nil pinger is ignored.
func (c *Checker) Register(name string, p Pinger) *Checker {
	if p != nil {
		c.deps[name] = p
	}
	return c
}

func (c *Checker) Names() []string {
	names := make([]string, 0, len(c.deps))
	for name := range c.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ready pings all dependencies and reports each one. A failing dependency
// does not cancel the others so the report stays complete.
func (c *Checker) Ready(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu     sync.Mutex
		report = Report{Ready: true, Checks: map[string]string{}}
	)
	var g errgroup.Group
	for name, dep := range c.deps {
		g.Go(func() error {
			err := ping(ctx, dep)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Ready = false
				report.Checks[name] = StatusDown
				if report.Errors == nil {
					report.Errors = map[string]string{}
				}
				report.Errors[name] = err.Error()
				return nil
			}
			report.Checks[name] = StatusUp
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func ping(ctx context.Context, dep Pinger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ping panicked: %v", r)
		}
	}()
	return dep.Ping(ctx)
}
