package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcus/roster/internal/models"
)

// BatchIDHeader carries a per-push correlation ID. It is regenerated on every
// attempt and is not an idempotency key.
const BatchIDHeader = "X-Roster-Batch-ID"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 4096

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNoHealthURL  = errors.New("no health url configured")
)

// RemoteError is a non-2xx response from the sink.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Client pushes contact batches to the remote collection endpoint.
type Client struct {
	URL       string
	HealthURL string
	HTTP      *http.Client
}

// New creates a new sink client. timeout <= 0 leaves the request unbounded
// apart from the caller's context.
func New(url, healthURL string, timeout time.Duration) *Client {
	return &Client{
		URL:       url,
		HealthURL: healthURL,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// Push sends the whole batch as one JSON array. Any 2xx response means the
// sink accepted every contact in it.
func (c *Client) Push(ctx context.Context, batch []models.Contact) error {
	if batch == nil {
		batch = []models.Contact{}
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(BatchIDHeader, uuid.NewString())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return responseError(resp)
}

// HealthCheck issues a GET against the health URL and succeeds on any 2xx.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.HealthURL == "" {
		return ErrNoHealthURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.HealthURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return responseError(resp)
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, &RemoteError{resp.StatusCode, msg})
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, &RemoteError{resp.StatusCode, msg})
	default:
		return &RemoteError{StatusCode: resp.StatusCode, Body: msg}
	}
}
