package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NewsSource lists course-pages news; implemented by NewsClient and
// faked in poller tests.
type NewsSource interface {
	ListNews(ctx context.Context, opts NewsOptions) ([]NewsItem, error)
}

// NewsClient queries the course-pages news feed. Unlike Sirius, this
// API takes the token as a Bearer header and needs its own scope, so
// it carries a separate Auth.
type NewsClient struct {
	httpClient *http.Client
	baseURL    string
	auth       *Auth
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func NewNewsClient(baseURL string, auth *Auth, ratePerSec int, timeout time.Duration, logger *zap.Logger) *NewsClient {
	return &NewsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		auth:       auth,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		logger:     logger,
	}
}

// NewsItem is one course-pages message.
type NewsItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CreatedBy   NewsAuthor `json:"createdBy"`
	PublishedAt time.Time  `json:"publishedAt"`
	Deleted     bool       `json:"deleted"`
	Audience    []string   `json:"audience"`
}

type NewsAuthor struct {
	Name string `json:"name"`
}

// NewsOptions are the optional query parameters of the news endpoint.
// Zero values are omitted from the request.
type NewsOptions struct {
	Representation string
	Courses        []string
	Deleted        *bool
	Limit          int
	Offset         int
	Since          time.Time
	Until          time.Time
}

// newsDateLayout is the since/until query format.
const newsDateLayout = "2006-01-02"

func (o NewsOptions) values() url.Values {
	q := url.Values{}
	if o.Representation != "" {
		q.Set("type", o.Representation)
	}
	if len(o.Courses) > 0 {
		q.Set("courses", strings.Join(o.Courses, ","))
	}
	if o.Deleted != nil {
		q.Set("deleted", strconv.FormatBool(*o.Deleted))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if !o.Since.IsZero() {
		q.Set("since", o.Since.Format(newsDateLayout))
	}
	if !o.Until.IsZero() {
		q.Set("until", o.Until.Format(newsDateLayout))
	}
	return q
}

// ListNews fetches course-pages messages. Non-200 surfaces as
// *APIError, same policy as ListEvents.
func (c *NewsClient) ListNews(ctx context.Context, opts NewsOptions) ([]NewsItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/cpages/news.json", c.baseURL)
	if q := opts.values().Encode(); q != "" {
		reqURL += "?" + q
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing news: %w", err)
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("reading response: %w", readErr)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var items []NewsItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding news response: %w", err)
	}

	c.logger.Debug("news fetched", zap.Int("count", len(items)))
	return items, nil
}
