package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// EventSource lists course events; implemented by Client and faked in
// poller tests.
type EventSource interface {
	ListEvents(ctx context.Context, course string, opts EventOptions) ([]Event, error)
}

// Client queries the Sirius course-events API. The access token rides
// as the access_token query parameter, which is how Sirius v1 wants
// it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       *Auth
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewClient(baseURL string, auth *Auth, ratePerSec int, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		auth:       auth,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		logger:     logger,
	}
}

type eventsResponse struct {
	Events []Event `json:"events"`
}

// ListEvents fetches events for one course. A 200 response without an
// "events" key counts as zero events, not an error. Any other status
// surfaces as *APIError and is the caller's to handle per course.
func (c *Client) ListEvents(ctx context.Context, course string, opts EventOptions) ([]Event, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	q := opts.values()
	q.Set("access_token", token)

	reqURL := fmt.Sprintf("%s/courses/%s/events?%s", c.baseURL, url.PathEscape(course), q.Encode())
	c.logger.Debug("listing course events",
		zap.String("course", course),
		zap.String("event_type", string(opts.EventType)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing events for %s: %w", course, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading response: %w", readErr)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var er eventsResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, fmt.Errorf("decoding events response: %w", err)
	}

	return er.Events, nil
}
