package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID     ContextKey = "ctx_request_id"
	CtxUsername      ContextKey = "ctx_username"
	CtxDBTransaction ContextKey = "ctx_db_transaction"
)

// GetUsername returns the authenticated username from the context
func GetUsername(ctx context.Context) string {
	if username, ok := ctx.Value(CtxUsername).(string); ok {
		return username
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetUsername sets the authenticated username in the context
func SetUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, CtxUsername, username)
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}
