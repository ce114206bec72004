package logging

import "log/slog"

// ログフィールド名の定数
const (
	FieldTraceID   = "trace_id"
	FieldEventID   = "event_id"
	FieldError     = "error"
	FieldLatencyMs = "latency_ms"
	FieldUsername  = "username"
	FieldMAC       = "mac"
	FieldOutcome   = "outcome"
	FieldOperation = "operation"
)

// WithTraceID はトレースIDのslog.Attrを返す。
func WithTraceID(traceID string) slog.Attr {
	return slog.String(FieldTraceID, traceID)
}

// WithEventID はイベントIDのslog.Attrを返す。
func WithEventID(eventID string) slog.Attr {
	return slog.String(FieldEventID, eventID)
}

// WithError はエラーのslog.Attrを返す。
func WithError(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// WithLatency はレイテンシ（ミリ秒）のslog.Attrを返す。
func WithLatency(ms int64) slog.Attr {
	return slog.Int64(FieldLatencyMs, ms)
}

// Fields はマスキング設定を保持するログフィールド生成器。
type Fields struct {
	masker *Masker
}

// NewFields は新しいFieldsを生成する。
func NewFields(masker *Masker) *Fields {
	if masker == nil {
		masker = NewMasker(false)
	}
	return &Fields{masker: masker}
}

// WithUsername はマスキングされたユーザー名のslog.Attrを返す。
func (f *Fields) WithUsername(username string) slog.Attr {
	return slog.String(FieldUsername, f.masker.Username(username))
}

// WithMAC はマスキングされたMACアドレスのslog.Attrを返す。
func (f *Fields) WithMAC(mac string) slog.Attr {
	return slog.String(FieldMAC, f.masker.MAC(mac))
}
