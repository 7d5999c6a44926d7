package httputil

import (
	"context"
)

type contextKey string

const ContextKeyRequestID contextKey = "request_id"
const ContextKeyAccountID contextKey = "account_id"

const HeaderRequestID = "X-Request-ID"

// WithRequestID stores the request id used for outbound calls
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithAccountID stores the account the outbound calls are made on behalf of
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, ContextKeyAccountID, accountID)
}

func RequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(ContextKeyRequestID).(string)

	return requestID
}

func AccountID(ctx context.Context) string {
	accountID, _ := ctx.Value(ContextKeyAccountID).(string)

	return accountID
}
