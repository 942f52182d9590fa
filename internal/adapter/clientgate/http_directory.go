// Package clientgate answers whether an owner exists in the client service.
package clientgate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/infrastructure/retry"
)

// errUnexpectedStatus marks responses other than 2xx and 404.
var errUnexpectedStatus = errors.New("unexpected status from client service")

// HTTPDirectory implements usecase.OwnerDirectory against the client
// service's GET /clients/{id} endpoint.
type HTTPDirectory struct {
	baseURL    string
	httpClient *http.Client
	retrier    *retry.Retrier
}

// Config holds HTTPDirectory settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewHTTPDirectory creates a new HTTPDirectory.
func NewHTTPDirectory(cfg Config) *HTTPDirectory {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &HTTPDirectory{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retrier: retry.New(
			retry.WithName("client lookup"),
			retry.WithMaxRetries(cfg.MaxRetries),
			retry.WithRetryable(isRetryable),
		),
	}
}

// Exists reports whether ownerID is a known client. A 404 means false;
// any other failure is retried and finally reported as domain.ErrUpstreamFailure.
func (d *HTTPDirectory) Exists(ctx context.Context, ownerID string) (bool, error) {
	var found bool

	err := d.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		found, err = d.lookup(ctx, ownerID)
		return err
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("owner_id", ownerID).Msg("client service lookup failed")
		return false, fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
	}

	return found, nil
}

func (d *HTTPDirectory) lookup(ctx context.Context, ownerID string) (bool, error) {
	endpoint := d.baseURL + "/clients/" + url.PathEscape(ownerID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to call client service: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
}

// isRetryable retries transport failures and unexpected statuses but not
// cancellation by the caller.
func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}
