package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	conversationIDKey contextKey = "conversationID"
)

// WithConversationID adds the session's conversation ID to the request context
func WithConversationID(r *http.Request, conversationID string) *http.Request {
	ctx := context.WithValue(r.Context(), conversationIDKey, conversationID)
	return r.WithContext(ctx)
}

// GetConversationID retrieves the conversation ID from context, returns
// empty string if not set
func GetConversationID(r *http.Request) string {
	conversationID, _ := r.Context().Value(conversationIDKey).(string)
	return conversationID
}
