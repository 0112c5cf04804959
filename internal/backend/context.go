package backend

import "context"

type ctxKey int

const (
	keyRequestID ctxKey = iota
	keyOperator
)

// WithRequestID attaches the inbound request id so outbound calls reuse it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestIDFrom returns the request id stored by WithRequestID, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// WithOperator records which operator is acting. Used as the token subject.
func WithOperator(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyOperator, email)
}

// OperatorFrom returns the operator stored by WithOperator, or "".
func OperatorFrom(ctx context.Context) string {
	email, _ := ctx.Value(keyOperator).(string)
	return email
}
