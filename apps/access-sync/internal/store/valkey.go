package store

import (
	"context"
	"fmt"

	"github.com/oyaguma3/access-sync/apps/access-sync/internal/config"
	"github.com/oyaguma3/access-sync/pkg/valkey"
	"github.com/redis/go-redis/v9"
)

// ValkeyClient はValkeyクライアントのラッパー。
type ValkeyClient struct {
	client *redis.Client
}

// NewValkeyClient は新しいValkeyClientを生成し、接続確認を行う。
func NewValkeyClient(ctx context.Context, cfg *config.Config) (*ValkeyClient, error) {
	opts := valkey.DefaultOptions().
		WithAddr(cfg.ValkeyAddr()).
		WithPassword(cfg.RedisPass)

	client, err := valkey.NewClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValkeyUnavailable, err)
	}
	return &ValkeyClient{client: client}, nil
}

// Client は内部のredis.Clientを返す。
func (vc *ValkeyClient) Client() *redis.Client {
	return vc.client
}

// Close は接続を閉じる。
func (vc *ValkeyClient) Close() error {
	return vc.client.Close()
}
