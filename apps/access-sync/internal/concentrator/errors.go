package concentrator

import (
	"errors"
	"fmt"
)

// センチネルエラー
var (
	// ErrCircuitOpen はCircuit BreakerがOpen状態の場合のエラー
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrConnDiscarded はタイムアウト・中断後に破棄された接続を再利用した場合のエラー
	ErrConnDiscarded = errors.New("connection discarded after interrupted request")

	// ErrConnReleased は解放済みの接続を使用した場合のエラー
	ErrConnReleased = errors.New("connection already released")

	// ErrAuthRejected はコンセントレータが認証を拒否した場合のエラー
	ErrAuthRejected = errors.New("authentication rejected by concentrator")

	// ErrInvalidResponse はコンセントレータからのレスポンスが不正な場合のエラー
	ErrInvalidResponse = errors.New("invalid response from concentrator")
)

// ConnectionKind は接続エラーの種別。
type ConnectionKind string

// 接続エラー種別
const (
	KindTimeout ConnectionKind = "timeout"
	KindAuth    ConnectionKind = "auth"
	KindNetwork ConnectionKind = "network"
)

// ConnectionError は接続エラーを表す。
// 新しい接続であれば再試行してよい。
type ConnectionError struct {
	Kind  ConnectionKind
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("concentrator connection error (%s): %v", e.Kind, e.Cause)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// CodeNoSuchItem は「該当なし」を表すエラーコード。
// Executeはこのコードのみ空の結果に正規化する。
const CodeNoSuchItem = 404

// CommandError はコンセントレータが返したエラー応答を表す。
// Code/Messageは機器の値をそのまま保持する。
type CommandError struct {
	Code    int
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("concentrator command error: %d %s", e.Code, e.Message)
}

// IsNoSuchItem は「該当なし」応答かどうかを判定する。
func (e *CommandError) IsNoSuchItem() bool {
	return e.Code == CodeNoSuchItem
}
