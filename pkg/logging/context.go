package logging

import "context"

// traceIDKey はコンテキストからTrace IDを取得するためのキー型
type traceIDKey struct{}

// ContextWithTraceID はコンテキストにTrace IDを設定する。
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext はコンテキストからTrace IDを取得する。未設定の場合は空文字列。
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey{}).(string)
	return traceID
}
