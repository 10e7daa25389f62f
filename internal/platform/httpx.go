package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"leaguelink/internal/api"
)

// UpstreamTimeout is the fixed per-request budget for upstream platform
// calls. There is no automatic retry: most upstream 4xx responses indicate
// non-transient credential or data problems, and transient failures are
// surfaced with distinct codes so the caller decides.
const UpstreamTimeout = 5 * time.Second

// maxUpstreamBody caps how much of an upstream response is read.
const maxUpstreamBody = 8 << 20

// NewHTTPClient returns the http.Client adapters share: fixed timeout, no
// redirect surprises.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: UpstreamTimeout}
}

// DoJSON executes a request, maps non-2xx statuses to canonical upstream
// errors, and decodes the body into out (skipped when out is nil). The raw
// body never escapes this function.
func DoJSON(ctx context.Context, client *http.Client, platformName string, req *http.Request, out interface{}) error {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return mapTransportError(platformName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused, then discard.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamBody))
		return MapStatus(platformName, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return mapTransportError(platformName, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", platformName, err)
	}

	return nil
}

// MapStatus translates an upstream HTTP status into the canonical error
// taxonomy. The raw status rides along for diagnostics only.
func MapStatus(platformName string, status int) error {
	switch status {
	case http.StatusUnauthorized:
		return api.NewUpstreamError(platformName, api.UpstreamAuthExpired, status)
	case http.StatusForbidden:
		return api.NewUpstreamError(platformName, api.UpstreamAccessDenied, status)
	case http.StatusNotFound:
		return api.NewUpstreamError(platformName, api.UpstreamNotFound, status)
	case http.StatusTooManyRequests:
		return api.NewUpstreamError(platformName, api.UpstreamRateLimited, status)
	default:
		return api.NewUpstreamError(platformName, api.UpstreamOther, status)
	}
}

func mapTransportError(platformName string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return api.NewUpstreamError(platformName, api.UpstreamTimeout, 0)
	}
	return api.NewUpstreamError(platformName, api.UpstreamOther, 0)
}
