package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/vetnova/clinic-platform/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClientIDKey is the context key for the resolved rate-limit identifier
	ClientIDKey contextKey = "client_id"
)

// RequestContext is the per-request, stack-scoped value handed to wrapped
// handlers. It is owned exclusively by the request being processed and
// discarded at response time; nothing in it is shared or cached across
// requests.
type RequestContext struct {
	User   *models.User
	Clinic *models.Clinic
	Query  interface{} // validated, coerced query object (when a schema was given)
	Body   interface{} // validated body object (when a schema was given)
}

// UserID returns the resolved user ID, or nil when unauthenticated
func (rc *RequestContext) UserID() *uuid.UUID {
	if rc == nil || rc.User == nil {
		return nil
	}
	id := rc.User.ID
	return &id
}

// TenantID returns the resolved clinic ID, or nil when no tenant resolved
func (rc *RequestContext) TenantID() *uuid.UUID {
	if rc == nil || rc.Clinic == nil {
		return nil
	}
	id := rc.Clinic.ID
	return &id
}

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClientIDFromContext retrieves the resolved client identifier from context
func GetClientIDFromContext(ctx context.Context) (ClientIdentifier, bool) {
	if val := ctx.Value(ClientIDKey); val != nil {
		if id, ok := val.(ClientIdentifier); ok {
			return id, true
		}
	}
	return ClientIdentifier{}, false
}

// WithClientID adds a resolved client identifier to the context
func WithClientID(ctx context.Context, id ClientIdentifier) context.Context {
	return context.WithValue(ctx, ClientIDKey, id)
}
