package authstore

import (
	"context"
	"errors"

	"github.com/angelmondragon/stylinx-storefront/internal/identity"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/redis"
)

// RedisStore keeps the record as a JSON string without expiry.
type RedisStore struct {
	kv  redis.KV
	key string
}

func NewRedisStore(kv redis.KV, name string) *RedisStore {
	return &RedisStore{kv: kv, key: kv.AuthRecordKey(name)}
}

func (s *RedisStore) Save(ctx context.Context, user identity.User) error {
	payload, err := encode(user)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, payload, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save auth record")
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*identity.User, error) {
	payload, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auth record")
	}
	return decode(payload)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.kv.Del(ctx, s.key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear auth record")
	}
	return nil
}
