package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBody = 1 << 20

// Client talks to the remote commerce service. It implements the cart store
// and the account, discount and order gateways. The store credential is read
// from the request context, so one Client serves every session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]

	// versions stamps snapshots in request order for servers that do not
	// version their carts.
	versions atomic.Int64
	products *productIndex
}

type response struct {
	status int
	body   []byte
}

func NewClient(cfg config.CommerceConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errs.Wrap(err, "invalid commerce base URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errs.Newf("commerce base URL must be absolute: %q", cfg.BaseURL)
	}

	c := &Client{
		baseURL: base,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		products: newProductIndex(cfg.LineIndexSize),
	}
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "commerce",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		// Callers giving up is not a sign of an unhealthy store.
		IsSuccessful: func(err error) bool {
			return err == nil || errs.Is(err, context.Canceled)
		},
	})
	return c, nil
}

// do sends one request. The returned response always carries a status below
// 500; transport failures, 5xx answers and an open breaker come back as
// Transient errors.
func (c *Client) do(ctx context.Context, method, path string, in any, authed bool) (*response, error) {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return nil, errs.Wrap(err, "failed to encode commerce request")
		}
	}

	var bearer string
	if authed {
		token, ok := shared.BearerFrom(ctx)
		if !ok {
			return nil, errs.AuthRequired(shared.ErrNotAuthenticated)
		}
		bearer = token
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
		if err != nil {
			return nil, err
		}
		out := &response{status: httpResp.StatusCode, body: raw}
		if out.status >= http.StatusInternalServerError {
			return out, errs.Newf("commerce answered %d", out.status)
		}
		return out, nil
	})
	if err != nil {
		slog.Warn("commerce request failed",
			"method", method,
			"path", path,
			"error", err.Error())
		if errs.Is(err, context.Canceled) {
			return nil, err
		}
		if errs.Is(err, gobreaker.ErrOpenState) || errs.Is(err, gobreaker.ErrTooManyRequests) {
			err = errs.Mark(err, shared.ErrRequestNotSent)
		}
		return nil, errs.Transient(errs.Mark(err, shared.ErrStoreUnavailable))
	}
	return resp, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) nextVersion() int64 {
	return c.versions.Add(1)
}

func decode(resp *response, out any) error {
	if err := json.Unmarshal(resp.body, out); err != nil {
		return errs.Transient(errs.Mark(errs.Wrap(err, "malformed commerce response"), shared.ErrStoreUnavailable))
	}
	return nil
}
