// Package client is the Go data-access layer for the FastGet API. Every call
// goes through the shared retry policy, responses are decoded from the
// standard envelope, and failures come back as typed *errors.Error values so
// callers branch on codes instead of message text.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yourwae/fastget-backend/pkg/authstate"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/retry"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	Policy  retry.Policy
	Logger  *logger.Logger
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	http   *resty.Client
	policy retry.Policy
	logg   *logger.Logger

	mu      sync.RWMutex
	access  string
	refresh string
	events  chan authstate.Event
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.Linear(3, time.Second, 10*time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   rc,
		policy: opts.Policy,
		logg:   opts.Logger,
		events: make(chan authstate.Event, 8),
	}, nil
}

// Events streams session changes caused by this client (login, signup,
// refresh, logout). It is meant to feed authstate.New.
func (c *Client) Events() <-chan authstate.Event {
	return c.events
}

// SetTokens installs credentials obtained elsewhere, e.g. from a saved session.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	c.access, c.refresh = access, refresh
	c.mu.Unlock()
}

func (c *Client) Tokens() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.refresh
}

func (c *Client) emit(ev authstate.Event) {
	select {
	case c.events <- ev:
	default:
		c.logg.Warn(c.logg.WithField(context.Background(), "event", string(ev.Kind)), "client: session event dropped")
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details,omitempty"`
	} `json:"error,omitempty"`
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	header map[string]string
}

// do executes the call under the retry policy and decodes the normalized
// data into out. It returns the envelope count when the server sent one.
func (c *Client) do(ctx context.Context, cl call, out any) (int, error) {
	var count int
	err := c.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		req := c.http.R().SetContext(ctx)
		if token, _ := c.Tokens(); token != "" {
			req.SetAuthToken(token)
		}
		if len(cl.query) > 0 {
			req.SetQueryParamsFromValues(cl.query)
		}
		for k, v := range cl.header {
			req.SetHeader(k, v)
		}
		if cl.body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
		}

		resp, err := req.Execute(cl.method, cl.path)
		if err != nil {
			if ctx.Err() != nil {
				return retry.Permanent(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request cancelled"))
			}
			c.logg.Debug(c.logg.WithFields(ctx, map[string]any{"path": cl.path, "attempt": attempt}), "client: transport error")
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request failed")
		}

		n, err := decode(resp.StatusCode(), resp.Body(), out)
		if err != nil {
			if retryable(resp.StatusCode()) {
				return err
			}
			return retry.Permanent(err)
		}
		count = n
		return nil
	})
	return count, err
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func decode(status int, body []byte, out any) (int, error) {
	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			if status >= 400 {
				return 0, statusError(status, string(body))
			}
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
		}
	}

	if status >= 400 || (len(body) > 0 && !env.Success) {
		if env.Error != nil && env.Error.Code != "" {
			e := pkgerrors.New(pkgerrors.Code(env.Error.Code), env.Error.Message)
			if env.Error.Details != nil {
				e = e.WithDetails(env.Error.Details)
			}
			return 0, e
		}
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return 0, statusError(status, msg)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(Normalize(env.Data), out); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode data")
		}
	}
	if env.Count != nil {
		return *env.Count, nil
	}
	return 0, nil
}

// statusError maps a bare HTTP status onto the closest error code.
func statusError(status int, msg string) error {
	code := pkgerrors.CodeInternal
	switch {
	case status == http.StatusBadRequest:
		code = pkgerrors.CodeValidation
	case status == http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		code = pkgerrors.CodeForbidden
	case status == http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case status == http.StatusConflict:
		code = pkgerrors.CodeConflict
	case status == http.StatusUnprocessableEntity:
		code = pkgerrors.CodeStateConflict
	case status == http.StatusTooManyRequests:
		code = pkgerrors.CodeRateLimit
	case status >= http.StatusInternalServerError:
		code = pkgerrors.CodeDependency
	}
	return pkgerrors.New(code, strings.TrimSpace(msg))
}
