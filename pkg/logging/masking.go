// Package logging はログ関連のユーティリティを提供する。
package logging

import "strings"

// MaskUsername は加入者ユーザー名をマスキングする。
// 先頭2文字 + マスク + 末尾1文字
// 例: user42 → us***2
// enabled=false の場合はマスキングせずにそのまま返す。
func MaskUsername(username string, enabled bool) string {
	if !enabled {
		return username
	}
	return MaskPartial(username, 2, 1, '*')
}

// MaskMAC はMACアドレスのNIC固有部分（下位3オクテット）をマスキングする。
// ベンダー識別部分（OUI）は障害調査のため残す。
// 例: AA:BB:CC:DD:EE:FF → AA:BB:CC:**:**:**
func MaskMAC(mac string, enabled bool) string {
	if !enabled {
		return mac
	}
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return MaskPartial(mac, 0, 0, '*')
	}
	for i := 3; i < 6; i++ {
		parts[i] = strings.Repeat("*", len(parts[i]))
	}
	return strings.Join(parts, ":")
}

// MaskPartial は文字列の一部をマスキングする。
// keepPrefix: 先頭から保持する文字数
// keepSuffix: 末尾から保持する文字数
// 文字列が短すぎる場合は全体をマスクする。
func MaskPartial(s string, keepPrefix, keepSuffix int, maskChar rune) string {
	runes := []rune(s)
	length := len(runes)
	if length == 0 {
		return s
	}

	if length <= keepPrefix+keepSuffix {
		return strings.Repeat(string(maskChar), length)
	}

	result := make([]rune, 0, length)
	result = append(result, runes[:keepPrefix]...)
	for i := keepPrefix; i < length-keepSuffix; i++ {
		result = append(result, maskChar)
	}
	result = append(result, runes[length-keepSuffix:]...)
	return string(result)
}

// Masker はマスキング設定を保持する構造体。
type Masker struct {
	enabled bool
}

// NewMasker は新しいMaskerを生成する。
func NewMasker(enabled bool) *Masker {
	return &Masker{enabled: enabled}
}

// Username はユーザー名をマスキングする。
func (m *Masker) Username(username string) string {
	return MaskUsername(username, m.enabled)
}

// MAC はMACアドレスをマスキングする。
func (m *Masker) MAC(mac string) string {
	return MaskMAC(mac, m.enabled)
}

// IsEnabled はマスキングが有効かどうかを返す。
func (m *Masker) IsEnabled() bool {
	return m.enabled
}
