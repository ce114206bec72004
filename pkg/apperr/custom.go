package apperr

import "fmt"

// ValidationError はバリデーションエラーを表す。
type ValidationError struct {
	Field   string // エラーが発生したフィールド名
	Message string // エラーメッセージ
	Cause   error  // 対応するセンチネルエラー（任意）
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field=%s, message=%s", e.Field, e.Message)
}

// Unwrap は対応するセンチネルエラーを返す。
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError はValidationErrorを生成する。
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}
