package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Davidayo16/ArtisanPro-server/api/controllers"
	"github.com/Davidayo16/ArtisanPro-server/api/middleware"
	"github.com/Davidayo16/ArtisanPro-server/internal/notifications"
	"github.com/Davidayo16/ArtisanPro-server/pkg/config"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	pkgredis "github.com/Davidayo16/ArtisanPro-server/pkg/redis"
)

// Store is the redis surface the HTTP layer needs: readiness, rate limit
// counters and replayable idempotent responses.
type Store interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Store         Store
	Bookings      controllers.BookingService
	Payments      controllers.PaymentService
	Notifications notifications.Service
	Profiles      controllers.ArtisanStatsService
	// Metrics serves the prometheus registry; nil leaves /metrics unmounted.
	Metrics http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var store Store
	checks := []controllers.ReadinessCheck{{Name: "postgres", Pinger: p.DB}}
	if p.Store != nil {
		store = p.Store
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: p.Store})
	}
	// Idempotency and rate limits are attached per route so chi has resolved
	// the full route pattern by the time they run.
	idem := middleware.Idempotency(idempotencyStore(store), logg)
	bookingPolicy := middleware.NewRateLimitPolicy(
		"bookings",
		cfg.RateLimit.BookingWindow,
		cfg.RateLimit.BookingIPLimit,
		cfg.RateLimit.BookingActorLimit,
	)
	webhookPolicy := middleware.NewRateLimitPolicy(
		"paystack-webhook",
		cfg.RateLimit.WebhookWindow,
		cfg.RateLimit.WebhookIPLimit,
		0,
	)

	customer := middleware.RequireRole(logg, enums.ActorRoleCustomer)
	artisan := middleware.RequireRole(logg, enums.ActorRoleArtisan)
	party := middleware.RequireRole(logg, enums.ActorRoleCustomer, enums.ActorRoleArtisan)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.With(middleware.RateLimit(webhookPolicy, rateStore(store), logg)).
			Post("/paystack", controllers.PaystackWebhook(p.Payments, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/bookings", controllers.ListBookings(p.Bookings, logg))
		r.With(customer, middleware.RateLimit(bookingPolicy, rateStore(store), logg), idem).
			Post("/bookings", controllers.CreateBooking(p.Bookings, logg))

		r.Route("/bookings/{bookingId}", func(r chi.Router) {
			r.Get("/", controllers.GetBooking(p.Bookings, logg))

			r.With(artisan).Post("/accept", controllers.AcceptBooking(p.Bookings, logg))
			r.With(artisan).Post("/decline", controllers.DeclineBooking(p.Bookings, logg))
			r.With(artisan).Post("/propose", controllers.ProposePrice(p.Bookings, logg))
			r.With(artisan).Post("/start", controllers.StartJob(p.Bookings, logg))
			r.With(artisan).Post("/complete", controllers.CompleteJob(p.Bookings, logg))

			r.With(party).Post("/counter", controllers.CounterOffer(p.Bookings, logg))
			r.With(party).Post("/accept-offer", controllers.AcceptOffer(p.Bookings, logg))
			r.With(party).Post("/reject-offer", controllers.RejectOffer(p.Bookings, logg))
			r.With(customer, idem).Post("/release", controllers.ReleasePayment(p.Bookings, logg))

			r.With(party, idem).Post("/cancel", controllers.CancelBooking(p.Bookings, logg))
			r.With(party, idem).Post("/dispute", controllers.OpenDispute(p.Bookings, logg))
		})

		r.Get("/artisans/{artisanId}/stats", controllers.GetArtisanStats(p.Profiles, logg))

		r.Route("/payments", func(r chi.Router) {
			r.With(customer, idem).Post("/initialize", controllers.InitializePayment(p.Payments, logg))
			r.Get("/verify/{reference}", controllers.VerifyPayment(p.Payments, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.With(idem).Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			r.With(idem).Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))

		r.Get("/bookings/{bookingId}", controllers.GetBooking(p.Bookings, logg))
		r.With(idem).Post("/bookings/{bookingId}/resolve-dispute", controllers.ResolveDispute(p.Bookings, logg))
	})

	return r
}

func idempotencyStore(s Store) pkgredis.IdempotencyStore {
	if s == nil {
		return nil
	}
	return s
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func rateStore(s Store) counterStore {
	if s == nil {
		return nil
	}
	return s
}
