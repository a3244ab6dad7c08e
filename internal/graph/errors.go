package graph

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// APIError is returned when a Graph endpoint answers with a status other than 200.
type APIError struct {
	Op         string // "list messages", "list attachments"
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// AuthError is returned when the client-credentials exchange fails.
type AuthError struct {
	TenantID   string
	StatusCode int // 0 when the endpoint could not be reached
	Err        error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to get access token for tenant %s: %v", e.TenantID, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(tenantID string, err error) *AuthError {
	ae := &AuthError{TenantID: tenantID, Err: err}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		ae.StatusCode = re.Response.StatusCode
	}
	return ae
}
