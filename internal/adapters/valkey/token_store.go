package valkey

import (
	"context"
	"errors"
)

const sessionTokenKey = "encinapp:session:token"

// TokenStore implements ports.TokenStore on top of the cache.
type TokenStore struct {
	cache *Cache
	key   string
}

// NewTokenStore stores the session token under a fixed key. An empty
// namespace keeps the default key.
func NewTokenStore(cache *Cache, namespace string) *TokenStore {
	key := sessionTokenKey
	if namespace != "" {
		key = namespace + ":session:token"
	}
	return &TokenStore{cache: cache, key: key}
}

// Load returns the stored token, or "" when none is stored.
func (s *TokenStore) Load(ctx context.Context) (string, error) {
	b, err := s.cache.Get(ctx, s.key)
	if errors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *TokenStore) Save(ctx context.Context, token string, ttlSeconds int) error {
	return s.cache.Set(ctx, s.key, []byte(token), ttlSeconds)
}

func (s *TokenStore) Delete(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key)
}
