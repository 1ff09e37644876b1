// Package authstore persists the last signed-in user so a restart can resume the session.
package authstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/stylinx-storefront/internal/identity"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/redis"
	"gorm.io/gorm"
)

// DefaultKey is the well-known record name.
const DefaultKey = "@stylinx_auth"

// Store keeps at most one record. Load returns nil, nil when nothing is stored.
type Store interface {
	Save(ctx context.Context, user identity.User) error
	Load(ctx context.Context) (*identity.User, error)
	Clear(ctx context.Context) error
}

// Params carries what the configured backend needs.
type Params struct {
	Config config.AuthStoreConfig
	Redis  redis.KV
	DB     *gorm.DB
}

// New picks the backend named in config.
func New(p Params) (Store, error) {
	key := strings.TrimSpace(p.Config.Key)
	if key == "" {
		key = DefaultKey
	}
	switch backend := p.Config.Normalized(); backend {
	case "", config.AuthStoreNone:
		return None{}, nil
	case config.AuthStoreRedis:
		if p.Redis == nil {
			return nil, fmt.Errorf("redis auth store requires a redis client")
		}
		return NewRedisStore(p.Redis, key), nil
	case config.AuthStoreSQL:
		if p.DB == nil {
			return nil, fmt.Errorf("sql auth store requires a database")
		}
		return NewSQLStore(p.DB, key), nil
	default:
		return nil, fmt.Errorf("unknown auth store backend %q", backend)
	}
}

// None persists nothing.
type None struct{}

func (None) Save(context.Context, identity.User) error    { return nil }
func (None) Load(context.Context) (*identity.User, error) { return nil, nil }
func (None) Clear(context.Context) error                  { return nil }

func encode(user identity.User) (string, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode auth record")
	}
	return string(raw), nil
}

func decode(payload string) (*identity.User, error) {
	var user identity.User
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode auth record")
	}
	if strings.TrimSpace(user.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth record has no user id")
	}
	return &user, nil
}
