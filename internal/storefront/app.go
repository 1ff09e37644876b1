// Package storefront assembles the client-side stores into one application object.
package storefront

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/angelmondragon/stylinx-storefront/internal/authstore"
	"github.com/angelmondragon/stylinx-storefront/internal/cart"
	"github.com/angelmondragon/stylinx-storefront/internal/catalog"
	"github.com/angelmondragon/stylinx-storefront/internal/checkout"
	"github.com/angelmondragon/stylinx-storefront/internal/identity"
	"github.com/angelmondragon/stylinx-storefront/internal/session"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	"github.com/angelmondragon/stylinx-storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
	"github.com/angelmondragon/stylinx-storefront/pkg/metrics"
	"github.com/angelmondragon/stylinx-storefront/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Params wires an App. DB and Redis are optional and owned by the App once passed in.
// CatalogAPI, Provider and AuthStore override what would be built from Config.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	Registry   prometheus.Registerer
	DB         *db.Client
	Redis      *redis.Client
	HTTPClient *http.Client
	CatalogAPI catalog.API
	Provider   identity.Provider
	AuthStore  authstore.Store
}

// App holds the stores for one storefront user.
type App struct {
	Cart    *cart.Store
	Catalog *catalog.Store
	Session *session.Session

	cfg       *config.Config
	logg      *logger.Logger
	db        *db.Client
	redis     *redis.Client
	authStore authstore.Store

	mu   sync.Mutex
	flow *checkout.Flow
}

// New builds every store. The persisted auth record is read here so the identity
// provider reports it to the session as soon as Start subscribes.
func New(ctx context.Context, p Params) (*App, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := p.Config
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	upstream := metrics.NewUpstreamMetrics(p.Registry)
	storeMetrics := metrics.NewStoreMetrics(p.Registry)

	store := p.AuthStore
	if store == nil {
		var kv redis.KV
		if p.Redis != nil {
			kv = p.Redis
		}
		built, err := authstore.New(authstore.Params{Config: cfg.AuthStore, Redis: kv, DB: gormOf(p.DB)})
		if err != nil {
			return nil, err
		}
		store = built
	}

	restored, err := store.Load(ctx)
	if err != nil {
		logg.Error(ctx, "failed to load auth record", err)
		restored = nil
	}
	if restored != nil {
		logg.Info(logg.WithUserID(ctx, restored.ID), "restoring signed-in user")
	}

	provider := p.Provider
	if provider == nil {
		provider, err = newProvider(ctx, cfg, logg, upstream, p.HTTPClient, p.DB, restored)
		if err != nil {
			return nil, err
		}
	}

	api := p.CatalogAPI
	if api == nil {
		api = catalog.NewClient(
			catalog.WithBaseURL(cfg.Catalog.BaseURL),
			catalog.WithTimeout(cfg.Catalog.Timeout),
			catalog.WithHTTPClient(p.HTTPClient),
			catalog.WithMetrics(upstream),
		)
	}
	catalogStore, err := catalog.NewStore(catalog.StoreParams{
		API:       api,
		Logger:    logg,
		Metrics:   storeMetrics,
		Sequenced: cfg.Catalog.Sequenced,
	})
	if err != nil {
		return nil, err
	}

	sess, err := session.New(session.Params{
		Provider: provider,
		Store:    store,
		Logger:   logg,
		Metrics:  storeMetrics,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		Cart:      cart.NewStore(storeMetrics),
		Catalog:   catalogStore,
		Session:   sess,
		cfg:       cfg,
		logg:      logg,
		db:        p.DB,
		redis:     p.Redis,
		authStore: store,
	}, nil
}

func newProvider(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.UpstreamMetrics, client *http.Client, dbClient *db.Client, restored *identity.User) (identity.Provider, error) {
	if cfg.Identity.IsLocal() {
		if dbClient == nil {
			return nil, fmt.Errorf("local identity provider requires a database")
		}
		return identity.NewLocalProvider(ctx, identity.LocalParams{
			DB:       dbClient.DB(),
			JWT:      cfg.JWT,
			Password: cfg.Password,
			Logger:   logg,
			Initial:  restored,
		})
	}
	return identity.NewFirebaseProvider(identity.FirebaseParams{
		APIKey:     cfg.Identity.FirebaseAPIKey,
		BaseURL:    cfg.Identity.FirebaseURL,
		HTTPClient: client,
		Timeout:    cfg.Identity.Timeout,
		Metrics:    m,
		Logger:     logg,
		Initial:    restored,
	})
}

// Start subscribes the session to the identity provider.
func (a *App) Start(ctx context.Context) {
	a.Session.Start(ctx)
	snap := a.Session.Snapshot()
	a.logg.Info(a.logg.WithField(ctx, "state", string(snap.State)), "storefront started")
}

// BeginCheckout starts a new wizard over the current cart, replacing any earlier one.
func (a *App) BeginCheckout(ctx context.Context) (*checkout.Flow, error) {
	flow, err := checkout.Begin(ctx, checkout.FlowParams{
		Cart:             a.Cart,
		FastShippingCost: a.cfg.Checkout.FastShippingCost,
		Logger:           a.logg,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "begin checkout")
	}
	a.mu.Lock()
	a.flow = flow
	a.mu.Unlock()
	return flow, nil
}

// Checkout returns the active wizard.
func (a *App) Checkout() (*checkout.Flow, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flow == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	return a.flow, nil
}

// CartSummary is the totals block of the cart screen.
func (a *App) CartSummary() checkout.Totals {
	return checkout.CartSummary(a.Cart.ProductTotal(), a.cfg.Checkout.FastShippingCost)
}

// Ready checks the infrastructure the App was given.
func (a *App) Ready(ctx context.Context) error {
	var err error
	if a.db != nil {
		err = multierr.Append(err, a.db.Ping(ctx))
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Ping(ctx))
	}
	return err
}

// Close detaches the session and releases owned connections.
func (a *App) Close() error {
	a.Session.Stop()
	var err error
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return err
}

func gormOf(c *db.Client) *gorm.DB {
	if c == nil {
		return nil
	}
	return c.DB()
}
