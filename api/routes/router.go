package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fabguard/storefront-backend/api/controllers"
	"github.com/fabguard/storefront-backend/api/middleware"
	"github.com/fabguard/storefront-backend/pkg/config"
	"github.com/fabguard/storefront-backend/pkg/logger"
	"github.com/fabguard/storefront-backend/pkg/metrics"
)

// Services are the handlers' collaborators. Pingers maps dependency names to
// readiness checks; RateLimiter may be nil to disable form throttling.
type Services struct {
	Catalog     controllers.CatalogReader
	Sessions    controllers.SessionRunner
	Memberships controllers.MembershipRegistrar
	Leads       controllers.LeadRecorder
	Orders      controllers.OrderHistory
	RateLimiter middleware.RateLimitStore
	Pingers     map[string]controllers.Pinger
	Metrics     *metrics.CheckoutMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	partnerPolicy := middleware.NewRateLimitPolicy("partners", cfg.RateLimit.Window, cfg.RateLimit.FormIPLimit, cfg.RateLimit.FormEmailLimit)
	contactPolicy := middleware.NewRateLimitPolicy("contact", cfg.RateLimit.Window, cfg.RateLimit.FormIPLimit, cfg.RateLimit.FormEmailLimit)
	registrationPolicy := middleware.NewRateLimitPolicy("memberships", cfg.RateLimit.Window, cfg.RateLimit.FormIPLimit, cfg.RateLimit.FormEmailLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.Pingers))
	})

	if svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/services", controllers.CatalogServices(svc.Catalog, logg))
			r.Get("/services/{serviceId}/items", controllers.CatalogServiceItems(svc.Catalog, logg))
			r.Get("/memberships", controllers.CatalogMemberships(svc.Catalog, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(svc.Sessions, logg))
				r.Put("/panel", controllers.CartPanel(svc.Sessions, logg))
				r.Post("/lines", controllers.CartAddLine(svc.Sessions, svc.Metrics, logg))
				r.Delete("/lines/{serviceId}", controllers.CartRemoveLine(svc.Sessions, svc.Metrics, logg))
				r.Put("/lines/{serviceId}/quantity", controllers.CartSetQuantity(svc.Sessions, svc.Metrics, logg))
				r.Put("/lines/{serviceId}/items", controllers.CartSetItems(svc.Sessions, svc.Metrics, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutFetch(svc.Sessions, logg))
				r.Post("/open", controllers.CheckoutOpen(svc.Sessions, logg))
				r.Post("/cancel", controllers.CheckoutCancel(svc.Sessions, logg))
				r.Post("/proceed", controllers.CheckoutProceed(svc.Sessions, logg))
				r.Post("/details", controllers.CheckoutDetails(svc.Sessions, logg))
				r.Post("/coupon", controllers.CheckoutApplyCoupon(svc.Sessions, logg))
				r.Delete("/coupon", controllers.CheckoutRemoveCoupon(svc.Sessions, logg))
				r.Post("/terms", controllers.CheckoutTerms(svc.Sessions, logg))
				r.Post("/submit", controllers.CheckoutSubmit(svc.Sessions, logg))
				r.Post("/lines/{serviceId}/expand", controllers.CheckoutExpandLine(svc.Sessions, logg))
				r.Post("/lines/{serviceId}/items", controllers.CheckoutToggleItem(svc.Sessions, logg))
			})
		})

		r.With(middleware.RateLimit(registrationPolicy, svc.RateLimiter, logg)).
			Post("/memberships/{membershipId}/registrations", controllers.MembershipRegister(svc.Memberships, logg))
		r.With(middleware.RateLimit(partnerPolicy, svc.RateLimiter, logg)).
			Post("/partners", controllers.PartnerRegister(svc.Leads, logg))
		r.With(middleware.RateLimit(contactPolicy, svc.RateLimiter, logg)).
			Post("/contact", controllers.ContactSubmit(svc.Leads, logg))

		r.With(middleware.Auth(cfg.Auth, logg)).Get("/orders", controllers.OrdersList(svc.Orders, logg))
	})

	return r
}
