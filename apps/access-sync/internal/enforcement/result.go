package enforcement

import (
	"errors"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/concentrator"
	"github.com/oyaguma3/access-sync/apps/access-sync/internal/policy"
)

// Outcome は操作結果の分類。
type Outcome string

// 操作結果
const (
	OutcomeSuccess         Outcome = "SUCCESS"
	OutcomePartialSuccess  Outcome = "PARTIAL_SUCCESS"
	OutcomeNotFound        Outcome = "NOT_FOUND"
	OutcomeConfigError     Outcome = "CONFIG_ERROR"
	OutcomeConnectionError Outcome = "CONNECTION_ERROR"
	OutcomeCommandError    Outcome = "COMMAND_ERROR"
)

// Operation は操作種別。
type Operation string

// 操作種別
const (
	OpSuspend   Operation = "suspend"
	OpRestore   Operation = "restore"
	OpCutByMAC  Operation = "cut_by_mac"
	OpTerminate Operation = "terminate"
)

// Result は1回の操作の結果。エラーはErrに格納し、呼び出し側へ返さない。
type Result struct {
	Operation Operation
	Subject   string // ユーザー名または正規化済みMACアドレス
	Outcome   Outcome
	State     policy.State

	PreviousProfile string
	Profile         string
	ProfileChanged  bool

	SessionTerminated bool
	SessionID         string

	PreviousPool string
	Pool         string
	PoolChanged  bool

	Err error
}

// OK は操作が完全に成功したかを返す。
func (r *Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Retryable は同じ操作の再実行で解消しうるかを返す。
func (r *Result) Retryable() bool {
	return r.Outcome == OutcomeConnectionError || r.Outcome == OutcomePartialSuccess
}

// NeedsTerminationRetry はセッション切断のみ再実行が必要かを返す。
func (r *Result) NeedsTerminationRetry() bool {
	return r.Outcome == OutcomePartialSuccess
}

// ErrorMessage はErrのメッセージを返す。Errがnilなら空文字列。
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// fail は失敗結果を設定する。
func (r *Result) fail(outcome Outcome, err error) *Result {
	r.Outcome = outcome
	r.Err = err
	return r
}

// classify はエラーを結果分類に変換する。
func classify(err error) Outcome {
	var connErr *concentrator.ConnectionError
	if errors.As(err, &connErr) {
		return OutcomeConnectionError
	}
	return OutcomeCommandError
}

// View は結果の出力用表現。
type View struct {
	Operation         Operation    `json:"operation" yaml:"operation"`
	Subject           string       `json:"subject" yaml:"subject"`
	Outcome           Outcome      `json:"outcome" yaml:"outcome"`
	State             policy.State `json:"state" yaml:"state"`
	PreviousProfile   string       `json:"previous_profile,omitempty" yaml:"previous_profile,omitempty"`
	Profile           string       `json:"profile,omitempty" yaml:"profile,omitempty"`
	ProfileChanged    bool         `json:"profile_changed" yaml:"profile_changed"`
	SessionTerminated bool         `json:"session_terminated" yaml:"session_terminated"`
	SessionID         string       `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	PreviousPool      string       `json:"previous_pool,omitempty" yaml:"previous_pool,omitempty"`
	Pool              string       `json:"pool,omitempty" yaml:"pool,omitempty"`
	PoolChanged       bool         `json:"pool_changed" yaml:"pool_changed"`
	Retryable         bool         `json:"retryable" yaml:"retryable"`
	Error             string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// View は出力用表現を返す。
func (r *Result) View() View {
	return View{
		Operation:         r.Operation,
		Subject:           r.Subject,
		Outcome:           r.Outcome,
		State:             r.State,
		PreviousProfile:   r.PreviousProfile,
		Profile:           r.Profile,
		ProfileChanged:    r.ProfileChanged,
		SessionTerminated: r.SessionTerminated,
		SessionID:         r.SessionID,
		PreviousPool:      r.PreviousPool,
		Pool:              r.Pool,
		PoolChanged:       r.PoolChanged,
		Retryable:         r.Retryable(),
		Error:             r.ErrorMessage(),
	}
}
