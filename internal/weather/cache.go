package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hitoshi/dayboard/internal/model"
)

// ErrCacheMiss はキャッシュにレポートが存在しない場合のエラー。
var ErrCacheMiss = errors.New("キャッシュにレポートが存在しません")

// Cache は天気レポートのキャッシュインターフェース。
type Cache interface {
	// Get はキーに対応するレポートを返す。未登録の場合はErrCacheMissを返す。
	Get(ctx context.Context, key string) (*model.WeatherReport, error)
	// Set はレポートをTTL付きで保存する。
	Set(ctx context.Context, key string, report *model.WeatherReport, ttl time.Duration) error
}

// RedisCache はRedisを使用した天気レポートのキャッシュ。
type RedisCache struct {
	client *redis.Client
}

// インターフェース実装の確認
var _ Cache = (*RedisCache)(nil)
var _ Cache = (*NoopCache)(nil)

// NewRedisCache はRedisCache の新しいインスタンスを生成する。
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get はキーに対応するレポートを返す。
func (c *RedisCache) Get(ctx context.Context, key string) (*model.WeatherReport, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("キャッシュの取得に失敗しました: %w", err)
	}

	var report model.WeatherReport
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		return nil, fmt.Errorf("キャッシュ値のパースに失敗しました: %w", err)
	}
	return &report, nil
}

// Set はレポートをTTL付きで保存する。
func (c *RedisCache) Set(ctx context.Context, key string, report *model.WeatherReport, ttl time.Duration) error {
	val, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("キャッシュ値のシリアライズに失敗しました: %w", err)
	}
	if err := c.client.Set(ctx, key, string(val), ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュの保存に失敗しました: %w", err)
	}
	return nil
}

// NoopCache はRedis未設定時に使用する何もしないキャッシュ。常にミスを返す。
type NoopCache struct{}

// Get は常にErrCacheMissを返す。
func (NoopCache) Get(_ context.Context, _ string) (*model.WeatherReport, error) {
	return nil, ErrCacheMiss
}

// Set は何もしない。
func (NoopCache) Set(_ context.Context, _ string, _ *model.WeatherReport, _ time.Duration) error {
	return nil
}
