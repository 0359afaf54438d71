// Package store is the HTTP client of the persistence backend that owns tickets,
// users and reference data. Access tokens are passed through without being parsed.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"waste-console/internal/apperr"
)

// envelope is the wrapper every store response uses.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
	Observer   Observer
}

// Observer is told the outcome of every store call: "ok", "rejected", "failed" or "cancelled".
type Observer interface {
	ObserveStoreCall(method string, d time.Duration, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveStoreCall(string, time.Duration, string) {}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
	obs     Observer
}

func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		log:     log.Named("store"),
		obs:     opts.Observer,
	}
	if c.obs == nil {
		c.obs = nopObserver{}
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller giving up says nothing about the store's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// rejected carries a 4xx answer through the breaker without counting it as a failure.
type rejected struct{ err error }

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, "encode store request")
		}
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
		if err != nil {
			return nil, err
		}
		var env envelope
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
				return nil, errors.Wrap(err, "decode store response")
			}
		}
		if resp.StatusCode >= 500 {
			return nil, errors.Errorf("store answered %d: %s", resp.StatusCode, env.Message)
		}
		if resp.StatusCode >= 400 || (len(raw) > 0 && !env.Success) {
			return rejected{statusError(resp.StatusCode, env)}, nil
		}
		return env.Data, nil
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.obs.ObserveStoreCall(method, time.Since(start), "cancelled")
			c.log.Debug("store request cancelled",
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(ctxErr))
			return apperr.Network(ctxErr, "store request cancelled")
		}
		c.obs.ObserveStoreCall(method, time.Since(start), "failed")
		c.log.Warn("store request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return apperr.Network(err, "store unavailable")
	}

	switch v := res.(type) {
	case rejected:
		c.obs.ObserveStoreCall(method, time.Since(start), "rejected")
		return v.err
	case json.RawMessage:
		c.obs.ObserveStoreCall(method, time.Since(start), "ok")
		if out == nil || len(v) == 0 || string(v) == "null" {
			return nil
		}
		if err := json.Unmarshal(v, out); err != nil {
			return apperr.Network(err, "unexpected store payload for %s %s", method, path)
		}
	}
	return nil
}

func statusError(status int, env envelope) error {
	msg := env.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		if len(env.Errors) > 0 {
			fields := make([]string, 0, len(env.Errors))
			for f := range env.Errors {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			return apperr.Validation(fields[0], "%s", env.Errors[fields[0]])
		}
		return apperr.Validation("", "%s", msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Authorization("%s", msg)
	case http.StatusNotFound:
		return apperr.NotFound("%s", msg)
	}
	return apperr.Network(nil, "store answered %d: %s", status, msg)
}
