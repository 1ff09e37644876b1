package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/stylinx-storefront/internal/cart"
	"github.com/angelmondragon/stylinx-storefront/internal/catalog"
	"github.com/angelmondragon/stylinx-storefront/internal/checkout"
	"github.com/angelmondragon/stylinx-storefront/internal/session"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	"github.com/angelmondragon/stylinx-storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/migrate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogProducts = `[{"id":7,"title":"Canvas Sneakers","slug":"canvas-sneakers","price":20,"description":"Light","category":{"id":4,"name":"Shoes","slug":"shoes","image":"https://img.test/shoes.png"},"images":["https://img.test/7.png"]}]`

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/products":
			_, _ = w.Write([]byte(catalogProducts))
		case "/categories":
			_, _ = w.Write([]byte(`[{"id":4,"name":"Shoes","slug":"shoes","image":"https://img.test/shoes.png"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(dsn, catalogURL string) *config.Config {
	return &config.Config{
		App:       config.AppConfig{Env: config.AppEnvDev},
		Catalog:   config.CatalogConfig{BaseURL: catalogURL, Timeout: 2 * time.Second, Sequenced: true},
		Identity:  config.IdentityConfig{Provider: config.IdentityProviderLocal},
		AuthStore: config.AuthStoreConfig{Backend: config.AuthStoreSQL, Key: "@stylinx_auth"},
		DB:        config.DBConfig{Driver: config.DBDriverSQLite, DSN: dsn, MaxOpenConns: 1},
		JWT:       config.JWTConfig{Secret: "app-test", Issuer: "stylinx-test", ExpirationMinutes: 5},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8192,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Checkout: config.CheckoutConfig{FastShippingCost: decimal.NewFromInt(10)},
	}
}

func openApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	ctx := context.Background()
	client, err := db.New(ctx, cfg.DB, nil)
	require.NoError(t, err)
	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.RunEmbedded(ctx, sqlDB, client.Driver(), "up"))

	app, err := New(ctx, Params{Config: cfg, DB: client, Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	return app
}

func TestAppRestoresSessionAcrossRestart(t *testing.T) {
	ctx := context.Background()
	srv := catalogServer(t)
	cfg := testConfig(filepath.Join(t.TempDir(), "app.db"), srv.URL)

	first := openApp(t, cfg)
	first.Start(ctx)
	assert.Equal(t, session.StateUnauthenticated, first.Session.State())

	user, err := first.Session.Signup(ctx, session.SignupForm{
		FullName:        "Ada Lovelace",
		Email:           "ada@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := openApp(t, cfg)
	defer second.Close()
	second.Start(ctx)
	snap := second.Session.Snapshot()
	require.True(t, snap.Authenticated())
	assert.Equal(t, user.ID, snap.User.ID)

	require.NoError(t, second.Session.Logout(ctx))
	require.NoError(t, second.Close())

	third := openApp(t, cfg)
	defer third.Close()
	third.Start(ctx)
	assert.Equal(t, session.StateUnauthenticated, third.Session.State())
}

func TestAppShoppingFlow(t *testing.T) {
	ctx := context.Background()
	srv := catalogServer(t)
	app := openApp(t, testConfig(filepath.Join(t.TempDir(), "flow.db"), srv.URL))
	defer app.Close()
	app.Start(ctx)

	require.NoError(t, app.Catalog.Refresh(ctx, catalog.ProductFilter{}.WithLimit(catalog.HomePageSize)))
	snap := app.Catalog.Snapshot()
	require.Len(t, snap.Products, 1)
	require.Len(t, snap.Categories, 1)

	size := "42"
	require.NoError(t, app.Cart.AddItem(cart.Item{Product: snap.Products[0], Quantity: 2, Size: &size}))
	assert.Equal(t, "50", app.CartSummary().Subtotal().String())

	_, err := app.Checkout()
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	flow, err := app.BeginCheckout(ctx)
	require.NoError(t, err)
	same, err := app.Checkout()
	require.NoError(t, err)
	assert.Same(t, flow, same)

	form := checkout.DefaultShippingForm()
	form.Method = checkout.ShippingFast
	totals, err := flow.SubmitShipping(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "50", totals.Subtotal().String())

	require.NoError(t, flow.SetTermsAccepted(true))
	require.NoError(t, flow.PlaceOrder(ctx))
	require.NoError(t, flow.ContinueShopping(ctx))
	assert.Equal(t, 0, app.Cart.TotalItemCount())
}

func TestAppReady(t *testing.T) {
	srv := catalogServer(t)
	app := openApp(t, testConfig(filepath.Join(t.TempDir(), "ready.db"), srv.URL))
	defer app.Close()
	assert.NoError(t, app.Ready(context.Background()))
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Params{})
	assert.Error(t, err)
}
