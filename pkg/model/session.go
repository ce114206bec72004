package model

// ActiveSession は認証済みの接続中セッションを表す。
// コンセントレータが独立して生成・破棄する。編集はせず切断のみ行う。
// RouterOSパス: /ppp/active
type ActiveSession struct {
	ID            string `json:"id" yaml:"id"`                         // セッションID（.id）
	Username      string `json:"username" yaml:"username"`             // 加入者識別子（name）
	RemoteAddress string `json:"remote_address" yaml:"remote_address"` // 払い出しアドレス（address）
	CallerID      string `json:"caller_id" yaml:"caller_id"`           // 発信者ID（caller-id、PPPoEではMAC）
	AcctSessionID string `json:"acct_session_id" yaml:"acct_session_id"`
	Uptime        string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
}
