// Package config は環境変数から設定を読み込む。
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// セッション切断方式
const (
	TerminationAPI    = "api"
	TerminationRADIUS = "radius"
)

// Config はアプリケーション設定を保持する。
// 起動時に一度だけ読み込み、以後は変更しない。
type Config struct {
	// コンセントレータ接続設定
	RouterHost           string `envconfig:"ROUTER_HOST" required:"true"`
	RouterPort           int    `envconfig:"ROUTER_PORT" default:"0"`
	RouterUser           string `envconfig:"ROUTER_USER" required:"true"`
	RouterPass           string `envconfig:"ROUTER_PASS" required:"true"`
	RouterTLS            bool   `envconfig:"ROUTER_TLS" default:"true"`
	RouterInsecureTLS    bool   `envconfig:"ROUTER_INSECURE_TLS" default:"false"`
	RouterTimeoutSeconds int    `envconfig:"ROUTER_TIMEOUT_SECONDS" default:"10"`

	// 施行ポリシー
	ProfileNormal string `envconfig:"PROFILE_NORMAL" required:"true"`
	ProfileCut    string `envconfig:"PROFILE_CUT" required:"true"`
	PoolCut       string `envconfig:"POOL_CUT" required:"true"`

	// セッション切断方式（"api" or "radius"）
	SessionTermination   string `envconfig:"SESSION_TERMINATION" default:"api"`
	RadiusDisconnectAddr string `envconfig:"RADIUS_DISCONNECT_ADDR"`
	RadiusSecret         string `envconfig:"RADIUS_SECRET"`

	// HTTP API設定
	ListenAddr     string  `envconfig:"LISTEN_ADDR" default:":8080"`
	GinMode        string  `envconfig:"GIN_MODE" default:"release"`
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"10"`

	// 加入者単位の排他ロック（Valkey）
	LockEnabled bool   `envconfig:"LOCK_ENABLED" default:"true"`
	RedisHost   string `envconfig:"REDIS_HOST"`
	RedisPort   string `envconfig:"REDIS_PORT"`
	RedisPass   string `envconfig:"REDIS_PASS"`

	// ログ設定
	LogLevel        string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogMaskUsername bool   `envconfig:"LOG_MASK_USERNAME" default:"true"`
}

// Load は環境変数から設定を読み込む。
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// RouterTimeout は1リクエストあたりのタイムアウトを返す。
func (c *Config) RouterTimeout() time.Duration {
	return time.Duration(c.RouterTimeoutSeconds) * time.Second
}

// RouterBaseURL はコンセントレータREST APIのベースURLを返す。
// ポート未指定時はTLS有無に応じて443/80を使う。
func (c *Config) RouterBaseURL() string {
	scheme := "http"
	port := c.RouterPort
	if c.RouterTLS {
		scheme = "https"
	}
	if port == 0 {
		port = DefaultHTTPPort
		if c.RouterTLS {
			port = DefaultHTTPSPort
		}
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(c.RouterHost, strconv.Itoa(port)), RESTPathPrefix)
}

// ValkeyAddr はValkey接続アドレスを "host:port" 形式で返す。
func (c *Config) ValkeyAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// validate は設定値のバリデーションを行う。
func (c *Config) validate() error {
	if c.RouterTimeoutSeconds <= 0 {
		return fmt.Errorf("ROUTER_TIMEOUT_SECONDS must be positive")
	}
	if c.RouterPort < 0 || c.RouterPort > 65535 {
		return fmt.Errorf("ROUTER_PORT out of range: %d", c.RouterPort)
	}
	if c.ProfileNormal == c.ProfileCut {
		return fmt.Errorf("PROFILE_NORMAL and PROFILE_CUT must differ")
	}

	switch strings.ToLower(c.SessionTermination) {
	case TerminationAPI:
	case TerminationRADIUS:
		if c.RadiusDisconnectAddr == "" || c.RadiusSecret == "" {
			return fmt.Errorf("RADIUS_DISCONNECT_ADDR and RADIUS_SECRET are required when SESSION_TERMINATION=radius")
		}
	default:
		return fmt.Errorf("SESSION_TERMINATION must be %q or %q", TerminationAPI, TerminationRADIUS)
	}

	if c.LockEnabled && (c.RedisHost == "" || c.RedisPort == "") {
		return fmt.Errorf("REDIS_HOST and REDIS_PORT are required when LOCK_ENABLED=true")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	return nil
}

// UsesRADIUSDisconnect はRADIUS Disconnect-Messageで切断するかを返す。
func (c *Config) UsesRADIUSDisconnect() bool {
	return strings.EqualFold(c.SessionTermination, TerminationRADIUS)
}
