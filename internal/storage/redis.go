package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to the credential key, so several portals can
	// share one redis.
	Prefix string
}

// RedisStore implements CredentialStore on a redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to redis. The connection is established lazily
// by go-redis; the first operation surfaces connectivity errors.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStoreFromClient(client, cfg.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    prefix + domain.CredentialKey,
	}
}

// Key returns the redis key holding the credential.
func (s *RedisStore) Key() string {
	return s.key
}

// Load implements CredentialStore.
func (s *RedisStore) Load(ctx context.Context) (domain.Credential, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Credential{}, ErrCredentialNotFound
		}
		return domain.Credential{}, fmt.Errorf("redis: get credential: %w", err)
	}
	return decodeCredential(data)
}

// Save implements CredentialStore.
func (s *RedisStore) Save(ctx context.Context, cred domain.Credential) error {
	data, err := encodeCredential(cred)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set credential: %w", err)
	}
	return nil
}

// Delete implements CredentialStore.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis: delete credential: %w", err)
	}
	return nil
}

// Close implements CredentialStore.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
