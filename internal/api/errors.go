package api

import "fmt"

// AuthError means the identity provider rejected the credentials or
// returned a token response missing required fields.
type AuthError struct {
	StatusCode int
	Body       string
	Reason     string
}

func (e *AuthError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("auth: %s", e.Reason)
	}
	return fmt.Sprintf("auth: token endpoint returned %d: %s", e.StatusCode, e.Body)
}

// APIError is a non-200 response from the Sirius or course-pages API.
// The raw body is kept for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: unexpected status %d: %s", e.StatusCode, e.Body)
}
