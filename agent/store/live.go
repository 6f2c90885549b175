package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

const defaultLivePrefix = "live:"

type RedisConfig struct {
	Addr        string        `envconfig:"ADDR" split_words:"true" required:"true"`
	Password    string        `envconfig:"PASSWORD" split_words:"true"`
	DB          int           `envconfig:"DB" split_words:"true" default:"0"`
	MaxRetries  int           `envconfig:"MAX_RETRIES" split_words:"true" default:"3"`
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// RedisLiveStore implements contract.LiveStore over a flat key space: the
// tree path "users/u1" lives at key "live:users/u1". Reading a branch path
// scans its children and assembles them into one map keyed by leaf segment.
type RedisLiveStore struct {
	client *redis.Client
	prefix string
}

var _ contractx.LiveStore = (*RedisLiveStore)(nil)

// LiveStoreOption customizes RedisLiveStore.
type LiveStoreOption func(*RedisLiveStore)

func WithLivePrefix(prefix string) LiveStoreOption {
	return func(s *RedisLiveStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.prefix = trimmed
		}
	}
}

func NewRedisLiveStore(ctx context.Context, cfg RedisConfig, opts ...LiveStoreOption) (*RedisLiveStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", contractx.ErrStore, err)
	}

	store := &RedisLiveStore{client: client, prefix: defaultLivePrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// NewRedisLiveStoreFromClient wraps an existing client. Used by tests.
func NewRedisLiveStoreFromClient(client *redis.Client, opts ...LiveStoreOption) *RedisLiveStore {
	store := &RedisLiveStore{client: client, prefix: defaultLivePrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *RedisLiveStore) GetLiveValue(ctx context.Context, path string) (map[string]any, error) {
	key, err := s.liveKey(path)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var value map[string]any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", contractx.ErrStore, path, err)
		}
		return value, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: get %s: %v", contractx.ErrStore, path, err)
	}

	// No leaf at this path; treat it as a branch and assemble children.
	return s.getBranch(ctx, key, path)
}

func (s *RedisLiveStore) getBranch(ctx context.Context, key, path string) (map[string]any, error) {
	branch := make(map[string]any)
	iter := s.client.Scan(ctx, 0, key+"/*", 0).Iterator()
	for iter.Next(ctx) {
		childKey := iter.Val()
		raw, err := s.client.Get(ctx, childKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("%w: get %s: %v", contractx.ErrStore, childKey, err)
		}
		var value map[string]any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", contractx.ErrStore, childKey, err)
		}
		branch[lastSegment(childKey)] = value
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", contractx.ErrStore, path, err)
	}
	if len(branch) == 0 {
		return nil, fmt.Errorf("%w: live value %s", contractx.ErrNotFound, path)
	}
	return branch, nil
}

func (s *RedisLiveStore) SetLiveValue(ctx context.Context, path string, value map[string]any) error {
	key, err := s.liveKey(path)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", contractx.ErrStore, path, err)
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", contractx.ErrStore, path, err)
	}
	return nil
}

// UpdateLiveValue shallow-merges patch over the current leaf value. There is
// no conflict detection; concurrent updates to the same path are last write
// wins.
func (s *RedisLiveStore) UpdateLiveValue(ctx context.Context, path string, patch map[string]any) error {
	current, err := s.GetLiveValue(ctx, path)
	if err != nil {
		return err
	}
	for field, value := range patch {
		current[field] = value
	}
	return s.SetLiveValue(ctx, path, current)
}

func (s *RedisLiveStore) RemoveLiveValue(ctx context.Context, path string) error {
	key, err := s.liveKey(path)
	if err != nil {
		return err
	}
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", contractx.ErrStore, path, err)
	}
	if removed == 0 {
		return fmt.Errorf("%w: live value %s", contractx.ErrNotFound, path)
	}
	return nil
}

func (s *RedisLiveStore) liveKey(path string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty live path", contractx.ErrValidation)
	}
	return s.prefix + trimmed, nil
}

func lastSegment(key string) string {
	if idx := strings.LastIndexByte(key, '/'); idx >= 0 {
		return key[idx+1:]
	}
	return key
}
