package util

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	requestNowKey contextKey = "request_now"
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}
func NewRequestID() string {
	return uuid.New().String()
}

// SetNow pins the request's notion of "now" (epoch ms). It is sampled once
// per request and every store call made for that request reuses it.
func SetNow(ctx context.Context, ms int64) context.Context {
	return context.WithValue(ctx, requestNowKey, ms)
}

// GetNow returns the pinned time and whether one was set.
func GetNow(ctx context.Context) (int64, bool) {
	ms, ok := ctx.Value(requestNowKey).(int64)
	return ms, ok
}
