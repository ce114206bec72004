package config

import "time"

// コンセントレータREST API
const (
	RESTPathPrefix   = "/rest"
	DefaultHTTPPort  = 80
	DefaultHTTPSPort = 443
)

// Circuit Breaker設定（ログインプローブのみ対象）
const (
	CBName             = "concentrator"
	CBMaxRequests      = 1
	CBInterval         = 30 * time.Second
	CBTimeout          = 30 * time.Second
	CBFailureThreshold = 3
)

// 排他ロック
const (
	LockTTL = 60 * time.Second
)

// サーバーシャットダウン設定
const (
	ShutdownTimeout = 10 * time.Second
)

// HTTPサーバー設定
const (
	ReadHeaderTimeout = 5 * time.Second
	// 1リクエストで発行するコンセントレータAPI呼び出しの上限（プローブ、検索、変更、切断）
	MaxCallsPerRequest = 6
)
