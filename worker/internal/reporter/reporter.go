package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/picarlo/picarlo/pkg/wire"
	"github.com/picarlo/picarlo/worker/internal/config"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 30 * time.Second
	backoffMultiplier = 2.0
	requestTimeout    = 10 * time.Second
)

// Client talks to the coordinator's HTTP API on behalf of one worker.
//
// Claim and Report retry transient failures (connection errors, 5xx) with
// truncated exponential backoff until ctx expires. A 4xx response is
// permanent: retrying an invalid claim or a duplicate report cannot succeed,
// so the error is surfaced immediately.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the coordinator configured in cfg.
func New(cfg config.WorkerConfig) *Client {
	return &Client{
		base: cfg.Coordinator,
		http: &http.Client{
			Transport: &authRoundTripper{base: http.DefaultTransport, auth: cfg.Auth},
			Timeout:   requestTimeout,
		},
	}
}

// Claim requests this worker's share of the active run. While the
// coordinator has no active run yet (503), Claim keeps retrying — workers
// may start before the coordinator creates the run.
func (c *Client) Claim(ctx context.Context, req wire.ClaimRequest) (wire.ClaimResponse, error) {
	var resp wire.ClaimResponse
	err := c.postWithRetry(ctx, "/api/v1/claim", req, &resp)
	if err != nil {
		return wire.ClaimResponse{}, fmt.Errorf("claim share: %w", err)
	}
	return resp, nil
}

// Report delivers the worker's final partial count.
func (c *Client) Report(ctx context.Context, rep wire.ShareReport) error {
	var resp wire.ReportResponse
	if err := c.postWithRetry(ctx, "/api/v1/reports", rep, &resp); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("coordinator rejected report: %s", resp.Message)
	}
	return nil
}

// postWithRetry POSTs body to path, decoding the JSON response into out.
// Transient failures are retried with backoff until ctx is done.
func (c *Client) postWithRetry(ctx context.Context, path string, body, out any) error {
	bo := newBackoff()

	for {
		err := c.post(ctx, path, body, out)
		if err == nil {
			return nil
		}
		if _, permanent := err.(*permanentError); permanent {
			return err
		}

		wait := bo.next()
		slog.Warn("reporter: request failed, will retry",
			"path", path, "err", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-time.After(wait):
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return &permanentError{fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return &permanentError{fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("coordinator returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &permanentError{fmt.Errorf("coordinator returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// permanentError marks failures that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// authRoundTripper injects the API key header into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.auth.Mode == "apikey" && t.auth.Key() != "" {
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.EffectiveHeader(), t.auth.Key())
	}
	return t.base.RoundTrip(req)
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	// Advance for next call.
	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}
