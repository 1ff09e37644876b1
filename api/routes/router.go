package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/stylinx-storefront/api/controllers"
	"github.com/angelmondragon/stylinx-storefront/api/middleware"
	"github.com/angelmondragon/stylinx-storefront/internal/storefront"
	"github.com/angelmondragon/stylinx-storefront/pkg/config"
	"github.com/angelmondragon/stylinx-storefront/pkg/logger"
	"github.com/angelmondragon/stylinx-storefront/pkg/metrics"
)

// NewRouter exposes the storefront stores over HTTP. limiter may be nil, which turns
// auth rate limiting off.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	app *storefront.App,
	gatherer prometheus.Gatherer,
	limiter middleware.RateLimiterStore,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, app))
	})
	if gatherer != nil {
		r.Handle("/metrics", metrics.Handler(gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", controllers.SessionFetch(app.Session))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(app.Session, logg))
			r.With(middleware.AuthRateLimit(signupPolicy, limiter, logg)).Post("/signup", controllers.AuthSignup(app.Session, logg))
			r.Post("/logout", controllers.AuthLogout(app.Session, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(app.Session, logg))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/", controllers.CatalogSnapshot(app.Catalog))
				r.Get("/home", controllers.CatalogHome(app.Catalog, logg))
				r.Get("/discover", controllers.CatalogDiscover(app.Catalog, logg))
				r.Get("/browse", controllers.CatalogBrowse(app.Catalog, logg))
				r.Get("/search", controllers.CatalogSearch(app.Catalog, logg))
				r.Delete("/search", controllers.CatalogResetSearch(app.Catalog))
				r.Put("/filtered", controllers.CatalogSetFiltered(app.Catalog, logg))
				r.Get("/categories", controllers.CatalogCategories(app.Catalog, logg))
				r.Get("/categories/{categoryId}", controllers.CatalogCategory(app.Catalog, logg))
				r.Get("/products/{productId}", controllers.CatalogProduct(app.Catalog, logg))
				r.Delete("/selection", controllers.CatalogClearSelection(app.Catalog))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(app.Cart, app))
				r.Delete("/", controllers.CartClear(app.Cart, app))
				r.Post("/items", controllers.CartAddItem(app.Cart, app, app.Catalog, logg))
				r.Patch("/items", controllers.CartUpdateItem(app.Cart, app, logg))
				r.Delete("/items", controllers.CartRemoveItem(app.Cart, app, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.CheckoutBegin(app, logg))
				r.Get("/", controllers.CheckoutFetch(app, logg))
				r.Get("/shipping-preview", controllers.CheckoutShippingPreview(app, logg))
				r.Post("/shipping", controllers.CheckoutShipping(app, logg))
				r.Post("/payment", controllers.CheckoutPayment(app, logg))
				r.Post("/place-order", controllers.CheckoutPlaceOrder(app, logg))
				r.Post("/continue", controllers.CheckoutContinue(app, logg))
			})
		})
	})

	return r
}
