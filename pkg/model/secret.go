// Package model は共通データ構造体を提供する。
package model

// AccessSecret はコンセントレータ上のPPPoEシークレットを表す。
// コンセントレータが所有し、本サービスはキャッシュせず都度参照する。
// RouterOSパス: /ppp/secret
type AccessSecret struct {
	ID       string `json:"id" yaml:"id"`             // コンセントレータ内部ID（.id）
	Username string `json:"username" yaml:"username"` // 加入者識別子（name、一意）
	Profile  string `json:"profile" yaml:"profile"`   // 現在のプロファイル
	Service  string `json:"service" yaml:"service"`   // サービス種別（pppoe等）
	Disabled bool   `json:"disabled" yaml:"disabled"` // 無効化フラグ
	Comment  string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// HasProfile は現在のプロファイルが指定値と完全一致するかを返す。
func (s *AccessSecret) HasProfile(profile string) bool {
	return s.Profile == profile
}
