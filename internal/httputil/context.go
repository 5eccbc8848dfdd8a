package httputil

import (
	"context"
	"net/http"
)

// contextKey is a private type so request-context values set here
// cannot collide with other packages.
type contextKey string

const userIDKey contextKey = "userID"

// WithUserID returns a request whose context carries the authenticated
// advisor's user ID.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID returns the authenticated user ID, or the empty string for
// requests that skipped authentication.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
