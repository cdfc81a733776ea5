package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scopes used against the CTU OAuth server. Each client holds its own
// Auth because tokens are issued per scope.
const (
	ScopeSiriusRead = "cvut:sirius:personal:read"
	ScopeCpagesRead = "cvut:cpages:common:read"
)

// expiryMargin is subtracted from the reported token lifetime so a
// token is never handed out moments before it expires mid-request.
const expiryMargin = 30 * time.Second

// Auth fetches and caches an OAuth2 bearer token obtained via the
// client-credentials grant. A cached token is reused until its
// deadline; when a refresh fails, a stale cached token is preferred
// over a hard failure so a transient auth outage does not abort
// polling.
type Auth struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	logger       *zap.Logger

	mu       sync.Mutex
	token    string
	deadline time.Time
	now      func() time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewAuth(tokenURL, clientID, clientSecret, scope string, timeout time.Duration, logger *zap.Logger) *Auth {
	return &Auth{
		httpClient:   &http.Client{Timeout: timeout},
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		logger:       logger,
		now:          time.Now,
	}
}

// Token returns a valid cached token or requests a new one. No retry
// is performed here; callers retry on their own cadence.
func (a *Auth) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.now().Before(a.deadline) {
		return a.token, nil
	}

	token, expiresIn, err := a.requestToken(ctx)
	if err != nil {
		if a.token != "" {
			a.logger.Warn("token refresh failed, reusing stale token",
				zap.String("scope", a.scope),
				zap.Error(err))
			return a.token, nil
		}
		return "", err
	}

	a.token = token
	a.deadline = a.now().Add(time.Duration(expiresIn)*time.Second - expiryMargin)
	a.logger.Debug("access token refreshed",
		zap.String("scope", a.scope),
		zap.Time("deadline", a.deadline))

	return a.token, nil
}

func (a *Auth) requestToken(ctx context.Context) (string, int64, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)
	form.Set("scope", a.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", 0, &AuthError{Reason: err.Error()}
	}

	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", 0, &AuthError{Reason: readErr.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, &AuthError{Reason: fmt.Sprintf("decoding token response: %v", err)}
	}
	if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
		return "", 0, &AuthError{Reason: "token response missing access_token or expires_in"}
	}

	return tr.AccessToken, tr.ExpiresIn, nil
}
