// Package apperr は共通エラー定義を提供する。
package apperr

import "errors"

// 加入者・リース関連エラー
var (
	// ErrSubscriberNotFound はPPPoEシークレットが見つからない場合のエラー
	ErrSubscriberNotFound = errors.New("subscriber not found")
	// ErrLeaseNotFound はDHCPリースが見つからない場合のエラー
	ErrLeaseNotFound = errors.New("DHCP lease not found")
)

// コンセントレータ設定関連エラー
var (
	// ErrProfileMissing は対象プロファイルがコンセントレータに存在しない場合のエラー
	ErrProfileMissing = errors.New("profile missing on concentrator")
	// ErrPoolMissing は対象アドレスプールがコンセントレータに存在しない場合のエラー
	ErrPoolMissing = errors.New("address pool missing on concentrator")
)

// 入力値関連エラー
var (
	// ErrInvalidUsername は不正なユーザー名エラー
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidMACAddress は不正なMACアドレス形式エラー
	ErrInvalidMACAddress = errors.New("invalid MAC address")
)

// 排他制御関連エラー
var (
	// ErrLockHeld は同一加入者への操作が実行中の場合のエラー
	ErrLockHeld = errors.New("operation already in progress for identity")
)
