package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// HTTPClientConfig bundles the HTTP client and circuit breaker settings.
type HTTPClientConfig struct {
	Client *http.Client

	// MaxConsecutiveFailures opens the breaker; 0 disables it.
	MaxConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

var (
	errUnauthorized = errors.New("unauthorized")
	errNotFound     = errors.New("location not found")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string, cfg HTTPClientConfig) *gobreaker.CircuitBreaker {
	if cfg.MaxConsecutiveFailures == 0 {
		return nil
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	threshold := cfg.MaxConsecutiveFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
}

// doRequest executes the request once. Non-2xx responses are errors.
// When cb is non-nil the call goes through the circuit breaker.
func doRequest(ctx context.Context, cfg HTTPClientConfig, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}

	req = req.WithContext(ctx)

	call := func() (interface{}, error) {
		resp, err := cfg.Client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %d", errUnauthorized, resp.StatusCode)
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %d", errNotFound, resp.StatusCode)
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
	}

	if cb == nil {
		result, err := call()
		if err != nil {
			return nil, err
		}
		return result.(*http.Response), nil
	}

	result, err := cb.Execute(call)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
