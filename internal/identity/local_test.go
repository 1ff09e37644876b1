package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/stylinx-storefront/pkg/auth"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	"github.com/angelmondragon/stylinx-storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/migrate"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{Secret: "local-test-secret", Issuer: "stylinx-test", ExpirationMinutes: 15}

func newLocalDB(t *testing.T) *gorm.DB {
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

func newLocalProvider(t *testing.T, initial *User) *LocalProvider {
	t.Helper()
	return newLocalProviderOn(t, newLocalDB(t), initial)
}

func newLocalProviderOn(t *testing.T, gdb *gorm.DB, initial *User) *LocalProvider {
	t.Helper()
	provider, err := NewLocalProvider(context.Background(), LocalParams{
		DB:  gdb,
		JWT: testJWT,
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Initial: initial,
		Now:     func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	return provider
}

func TestLocalSignupThenLogin(t *testing.T) {
	ctx := context.Background()
	provider := newLocalProvider(t, nil)

	var seen []*User
	unsubscribe := provider.ObserveSession(func(u *User) { seen = append(seen, u) })
	defer unsubscribe()
	require.Len(t, seen, 1)
	require.Nil(t, seen[0])

	created, err := provider.Signup(ctx, "Ada Lovelace", "Ada@Example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "ada@example.com", created.Email)
	require.Equal(t, "Ada Lovelace", created.FullName)
	require.Len(t, seen, 2)
	require.Equal(t, created.ID, seen[1].ID)

	claims, err := auth.ParseIDToken(testJWT, provider.IDToken())
	require.NoError(t, err)
	require.Equal(t, created.ID, claims.UID())

	require.NoError(t, provider.Logout(ctx))
	require.Len(t, seen, 3)
	require.Nil(t, seen[2])
	require.Empty(t, provider.IDToken())

	user, err := provider.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.Len(t, seen, 4)
}

func TestLocalLoginFailures(t *testing.T) {
	ctx := context.Background()
	provider := newLocalProvider(t, nil)
	_, err := provider.Signup(ctx, "Grace", "grace@example.com", "hopper1")
	require.NoError(t, err)
	require.NoError(t, provider.Logout(ctx))

	calls := 0
	defer provider.ObserveSession(func(*User) { calls++ })()

	_, err = provider.Login(ctx, "grace@example.com", "wrong-password")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	require.Equal(t, "Invalid email or password", pkgerrors.As(err).Message())

	_, err = provider.Login(ctx, "nobody@example.com", "whatever")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	require.Equal(t, 1, calls, "failed logins must not notify observers")
}

func TestLocalSignupRejectsDuplicateAndWeakPassword(t *testing.T) {
	ctx := context.Background()
	provider := newLocalProvider(t, nil)

	_, err := provider.Signup(ctx, "Alan", "alan@example.com", "12345")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	require.Equal(t, map[string]any{"reason": "WEAK_PASSWORD"}, pkgerrors.As(err).Details())

	_, err = provider.Signup(ctx, "Alan", "alan@example.com", "123456")
	require.NoError(t, err)

	_, err = provider.Signup(ctx, "Alan Again", "ALAN@example.com", "abcdefg")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	require.Equal(t, "Registration failed. Please try again.", pkgerrors.As(err).Message())
	require.Equal(t, map[string]any{"reason": "EMAIL_EXISTS"}, pkgerrors.As(err).Details())
}

func TestLocalInitialUserReportedFirst(t *testing.T) {
	gdb := newLocalDB(t)
	created, err := newLocalProviderOn(t, gdb, nil).Signup(context.Background(), "X Person", "x@example.com", "secret1")
	require.NoError(t, err)

	restored := &User{ID: created.ID, Email: "x@example.com", FullName: "Stale Name"}
	provider := newLocalProviderOn(t, gdb, restored)

	var first *User
	defer provider.ObserveSession(func(u *User) {
		if first == nil {
			first = u
		}
	})()
	require.NotNil(t, first)
	require.Equal(t, created.ID, first.ID)
	require.Equal(t, "X Person", first.FullName)
}

func TestLocalInitialUserDroppedWhenAccountMissing(t *testing.T) {
	provider := newLocalProvider(t, &User{ID: "missing-user", Email: "gone@example.com"})

	calls := 0
	var first *User
	defer provider.ObserveSession(func(u *User) {
		calls++
		first = u
	})()
	require.Equal(t, 1, calls)
	require.Nil(t, first)
}

func TestNewLocalProviderRequiresDBAndSecret(t *testing.T) {
	_, err := NewLocalProvider(context.Background(), LocalParams{JWT: testJWT})
	require.Error(t, err)
}
