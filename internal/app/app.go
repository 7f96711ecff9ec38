// Package app assembles the booking, escrow and payment services shared by the
// api and cron-worker binaries.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Davidayo16/ArtisanPro-server/internal/bookings"
	"github.com/Davidayo16/ArtisanPro-server/internal/cache"
	"github.com/Davidayo16/ArtisanPro-server/internal/escrow"
	"github.com/Davidayo16/ArtisanPro-server/internal/ledger"
	"github.com/Davidayo16/ArtisanPro-server/internal/negotiation"
	"github.com/Davidayo16/ArtisanPro-server/internal/notifications"
	"github.com/Davidayo16/ArtisanPro-server/internal/payments"
	"github.com/Davidayo16/ArtisanPro-server/internal/pricing"
	"github.com/Davidayo16/ArtisanPro-server/internal/profiles"
	"github.com/Davidayo16/ArtisanPro-server/pkg/config"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/metrics"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox"
	"github.com/Davidayo16/ArtisanPro-server/pkg/paystack"
	"github.com/Davidayo16/ArtisanPro-server/pkg/redis"
)

type Services struct {
	Bookings      *bookings.Service
	Payments      *payments.Service
	Payouts       *payments.Payouts
	Notifications notifications.Service
	Profiles      *profiles.Service
	// NotificationRepo backs the retention job.
	NotificationRepo notifications.Repository
	Outbox           *outbox.Repository
	BookingMetrics   *metrics.BookingMetrics
}

// Build wires every domain service over one database and redis connection.
// Metrics are registered on reg.
func Build(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (*Services, error) {
	conn := dbClient.DB()

	fees, err := pricing.NewFeeCalculator(cfg.Booking.PlatformFeePercent)
	if err != nil {
		return nil, err
	}
	redisCache, err := cache.NewRedis(redisClient)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	profileRepo := profiles.NewRepository(conn)
	profileSvc, err := profiles.NewService(profiles.ServiceParams{
		Repo:     profileRepo,
		Cache:    redisCache,
		StatsTTL: cfg.Cache.ArtisanStatsTTL,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("create profiles service: %w", err)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), cfg.Booking.Currency)
	if err != nil {
		return nil, fmt.Errorf("create ledger service: %w", err)
	}

	outboxRepo := outbox.NewRepository(conn)
	emitter := outbox.NewService(outboxRepo, logg)

	escrowSvc, err := escrow.NewService(escrow.ServiceParams{
		Repo:             escrow.NewRepository(conn),
		Ledger:           ledgerSvc,
		Counters:         profileSvc,
		Outbox:           emitter,
		Logger:           logg,
		AutoReleaseAfter: cfg.Booking.EscrowAutoReleaseAfter,
	})
	if err != nil {
		return nil, fmt.Errorf("create escrow service: %w", err)
	}

	engine, err := negotiation.NewEngine(negotiation.EngineParams{
		Repo:      negotiation.NewRepository(conn),
		MaxRounds: cfg.Booking.NegotiationMaxRounds,
		TTL:       cfg.Booking.NegotiationTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create negotiation engine: %w", err)
	}

	bookingMetrics := metrics.NewBookingMetrics(reg)
	bookingSvc, err := bookings.NewService(bookings.ServiceParams{
		Repo:          bookings.NewRepository(conn),
		TxRunner:      dbClient,
		Escrow:        escrowSvc,
		Negotiation:   engine,
		Profiles:      profileSvc,
		Outbox:        emitter,
		Fees:          fees,
		Cache:         redisCache,
		BookingTTL:    cfg.Cache.BookingTTL,
		Sequencer:     redisClient,
		Metrics:       bookingMetrics,
		Logger:        logg,
		AcceptTimeout: cfg.Booking.AcceptTimeout,
		Currency:      cfg.Booking.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("create bookings service: %w", err)
	}

	psClient, err := paystack.NewClient(cfg.Paystack)
	if err != nil {
		return nil, fmt.Errorf("create paystack client: %w", err)
	}
	gateway, err := payments.NewPaystackGateway(psClient)
	if err != nil {
		return nil, fmt.Errorf("create payment gateway: %w", err)
	}
	guard, err := payments.NewWebhookGuard(redisClient, cfg.Paystack.WebhookTTL)
	if err != nil {
		return nil, fmt.Errorf("create webhook guard: %w", err)
	}
	payouts, err := payments.NewPayouts(payments.PayoutParams{
		Ledger:         ledgerSvc,
		Recipients:     profileRepo,
		Gateway:        gateway,
		TxRunner:       dbClient,
		Outbox:         emitter,
		Logger:         logg,
		GatewayTimeout: cfg.Paystack.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create payouts: %w", err)
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Repo:           payments.NewRepository(conn),
		TxRunner:       dbClient,
		Bookings:       bookingSvc,
		Ledger:         ledgerSvc,
		Gateway:        gateway,
		Guard:          guard,
		Transfers:      payouts,
		Outbox:         emitter,
		Logger:         logg,
		CallbackURL:    cfg.Paystack.CallbackURL,
		GatewayTimeout: cfg.Paystack.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create payments service: %w", err)
	}

	notificationRepo := notifications.NewRepository(conn)
	notificationSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return nil, fmt.Errorf("create notifications service: %w", err)
	}

	return &Services{
		Bookings:         bookingSvc,
		Payments:         paymentSvc,
		Payouts:          payouts,
		Profiles:         profileSvc,
		Notifications:    notificationSvc,
		NotificationRepo: notificationRepo,
		Outbox:           outboxRepo,
		BookingMetrics:   bookingMetrics,
	}, nil
}
