// Package valkey はValkeyクライアントの共通機能を提供する。
package valkey

import (
	"net"
	"strconv"
	"time"
)

// Options はValkeyクライアントの接続オプション。
type Options struct {
	Addr           string        // 接続先アドレス（host:port形式）
	Password       string        // 認証パスワード
	DB             int           // データベース番号
	ConnectTimeout time.Duration // 接続タイムアウト
	CommandTimeout time.Duration // 読み書きタイムアウト
	PoolSize       int           // コネクションプールサイズ
}

// DefaultOptions はデフォルトのOptionsを返す。
// 排他ロック用途のため短いタイムアウトと小さなプールを使う。
func DefaultOptions() *Options {
	return &Options{
		Addr:           "localhost:6379",
		ConnectTimeout: 3 * time.Second,
		CommandTimeout: 1 * time.Second,
		PoolSize:       5,
	}
}

// WithAddr はアドレスを設定する。
func (o *Options) WithAddr(addr string) *Options {
	o.Addr = addr
	return o
}

// WithPassword はパスワードを設定する。
func (o *Options) WithPassword(password string) *Options {
	o.Password = password
	return o
}

// WithTimeouts はタイムアウトを設定する。
func (o *Options) WithTimeouts(connect, command time.Duration) *Options {
	o.ConnectTimeout = connect
	o.CommandTimeout = command
	return o
}

// BuildAddr はホストとポートからアドレス文字列を生成する。
func BuildAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
