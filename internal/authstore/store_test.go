package authstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/stylinx-storefront/internal/identity"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	"github.com/angelmondragon/stylinx-storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/migrate"
	"github.com/angelmondragon/stylinx-storefront/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ada = identity.User{ID: "uid-1", Email: "ada@example.com", FullName: "Ada"}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	client, err := db.New(ctx, config.DBConfig{Driver: config.DBDriverSQLite, DSN: dsn, MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.RunEmbedded(ctx, sqlDB, client.Driver(), "up"))
	return client.DB()
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, ada))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ada, got)

	grace := identity.User{ID: "uid-2", Email: "grace@example.com", FullName: "Grace"}
	require.NoError(t, store.Save(ctx, grace))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, &grace, got)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, store.Clear(ctx))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	client, _ := newRedis(t)
	exerciseStore(t, NewRedisStore(client, DefaultKey))
}

func TestRedisStoreWritesFlatJSON(t *testing.T) {
	client, mr := newRedis(t)
	store := NewRedisStore(client, DefaultKey)
	require.NoError(t, store.Save(context.Background(), ada))

	raw, err := mr.Get("stylinx:auth:@stylinx_auth")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"uid-1","email":"ada@example.com","fullName":"Ada"}`, raw)
}

func TestRedisStoreCorruptRecord(t *testing.T) {
	client, mr := newRedis(t)
	require.NoError(t, mr.Set("stylinx:auth:@stylinx_auth", "not json"))
	_, err := NewRedisStore(client, DefaultKey).Load(context.Background())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInternal))
}

func TestSQLStoreRoundTrip(t *testing.T) {
	exerciseStore(t, NewSQLStore(newDB(t), DefaultKey))
}

func TestSQLStoreKeysAreIndependent(t *testing.T) {
	conn := newDB(t)
	ctx := context.Background()
	first := NewSQLStore(conn, "one")
	second := NewSQLStore(conn, "two")

	require.NoError(t, first.Save(ctx, ada))
	got, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNoneStore(t *testing.T) {
	store := None{}
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, ada))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewSelectsBackend(t *testing.T) {
	client, _ := newRedis(t)

	store, err := New(Params{Config: config.AuthStoreConfig{Backend: "none"}})
	require.NoError(t, err)
	assert.IsType(t, None{}, store)

	store, err = New(Params{Config: config.AuthStoreConfig{Backend: " Redis "}, Redis: client})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)

	_, err = New(Params{Config: config.AuthStoreConfig{Backend: "redis"}})
	assert.Error(t, err)

	_, err = New(Params{Config: config.AuthStoreConfig{Backend: "sql"}})
	assert.Error(t, err)

	_, err = New(Params{Config: config.AuthStoreConfig{Backend: "s3"}})
	assert.Error(t, err)
}
