package bookings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/internal/cache"
	"github.com/Davidayo16/ArtisanPro-server/internal/escrow"
	"github.com/Davidayo16/ArtisanPro-server/internal/negotiation"
	"github.com/Davidayo16/ArtisanPro-server/internal/pricing"
	"github.com/Davidayo16/ArtisanPro-server/internal/profiles"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/logger"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox/payloads"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

const (
	DefaultAcceptTimeout = 2 * time.Minute
	defaultBookingTTL    = 30 * time.Second

	ExpiredDeclineReason     = "expired"
	NegotiationExpiredReason = "negotiation expired"
	NegotiationRejectReason  = "Price negotiation rejected"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type profileStore interface {
	profiles.Counters
	Invalidate(ctx context.Context, artisanIDs ...uuid.UUID)
}

type transitionMetrics interface {
	ObserveTransition(from, to, actor string)
	ObserveSettlement(outcome, trigger string, amount int64)
}

type ServiceParams struct {
	Repo          Repository
	TxRunner      txRunner
	Escrow        *escrow.Service
	Negotiation   *negotiation.Engine
	Profiles      profileStore
	Outbox        outboxEmitter
	Fees          pricing.FeeCalculator
	Cache         cache.Cache
	BookingTTL    time.Duration
	Sequencer     sequencer
	Metrics       transitionMetrics
	Logger        *logger.Logger
	AcceptTimeout time.Duration
	Currency      string
	Now           func() time.Time
}

// Service is the booking state machine. Every transition reads the booking,
// checks its precondition and writes the new status in one transaction,
// guarded by a compare-and-commit on the status it read.
type Service struct {
	repo          Repository
	tx            txRunner
	escrow        *escrow.Service
	negotiation   *negotiation.Engine
	profiles      profileStore
	outbox        outboxEmitter
	fees          pricing.FeeCalculator
	cache         cache.Cache
	bookingTTL    time.Duration
	numbers       numberGenerator
	metrics       transitionMetrics
	logg          *logger.Logger
	acceptTimeout time.Duration
	currency      string
	validate      *validator.Validate
	now           func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("bookings repository required")
	case params.TxRunner == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Escrow == nil:
		return nil, fmt.Errorf("escrow service required")
	case params.Negotiation == nil:
		return nil, fmt.Errorf("negotiation engine required")
	case params.Profiles == nil:
		return nil, fmt.Errorf("profile counters required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	c := params.Cache
	if c == nil {
		c = cache.Noop{}
	}
	ttl := params.BookingTTL
	if ttl <= 0 {
		ttl = defaultBookingTTL
	}
	timeout := params.AcceptTimeout
	if timeout <= 0 {
		timeout = DefaultAcceptTimeout
	}
	currency := params.Currency
	if currency == "" {
		currency = "NGN"
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "bookings", Output: io.Discard})
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:          params.Repo,
		tx:            params.TxRunner,
		escrow:        params.Escrow,
		negotiation:   params.Negotiation,
		profiles:      params.Profiles,
		outbox:        params.Outbox,
		fees:          params.Fees,
		cache:         c,
		bookingTTL:    ttl,
		numbers:       numberGenerator{seq: params.Sequencer},
		metrics:       params.Metrics,
		logg:          logg,
		acceptTimeout: timeout,
		currency:      currency,
		validate:      validator.New(),
		now:           now,
	}, nil
}

// Change describes a committed booking transition. Callers that run a
// transition inside their own transaction hand it to Committed afterwards.
type Change struct {
	Booking   *models.Booking
	From      enums.BookingStatus
	ActorRole enums.ActorRole
	settled   *settlement
}

type settlement struct {
	outcome string
	trigger string
	amount  int64
}

// Committed runs the post-commit side effects of changes: the transition log
// line, metrics and cache invalidation. It never fails.
func (s *Service) Committed(ctx context.Context, changes ...*Change) {
	for _, c := range changes {
		if c == nil || c.Booking == nil {
			continue
		}
		b := c.Booking
		logCtx := s.logg.WithBookingID(ctx, b.ID.String())
		logCtx = s.logg.WithActorRole(logCtx, string(c.ActorRole))
		if c.From != b.Status {
			logCtx = s.logg.WithTransition(logCtx, string(c.From), string(b.Status))
			s.logg.Info(logCtx, "booking transitioned")
			if s.metrics != nil {
				s.metrics.ObserveTransition(string(c.From), string(b.Status), string(c.ActorRole))
			}
		}
		if c.settled != nil && s.metrics != nil {
			s.metrics.ObserveSettlement(c.settled.outcome, c.settled.trigger, c.settled.amount)
		}
		if err := s.cache.Delete(ctx, cache.BookingKey(b.ID)); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "booking cache invalidation failed")
		}
		s.profiles.Invalidate(ctx, b.ArtisanID)
	}
}

// Find loads a booking for system callers, inside tx when one is given.
func (s *Service) Find(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error) {
	return s.load(ctx, s.repo.WithTx(tx), id)
}

// Get returns a booking visible to actor, reading through the cache.
func (s *Service) Get(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
	key := cache.BookingKey(id)
	var cached models.Booking
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "booking cache read failed")
	} else if ok {
		if err := canView(&cached, actor); err != nil {
			return nil, err
		}
		return &cached, nil
	}

	b, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if err := canView(b, actor); err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, b, s.bookingTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "booking cache write failed")
	}
	return b, nil
}

// List returns the actor's bookings, newest first.
func (s *Service) List(ctx context.Context, actor types.Actor, status *enums.BookingStatus, limit int) ([]models.Booking, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor required")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	out, err := s.repo.ListForUser(ctx, actor.ID, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Booking, error) {
	b, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return b, nil
}

// commit checks next against the invariant table and writes it if the row
// still has prev's status.
func (s *Service) commit(ctx context.Context, tx *gorm.DB, prev, next *models.Booking, e *models.Escrow, columns ...string) error {
	if err := CheckInvariants(next, e); err != nil {
		s.logg.Error(s.logg.WithBookingID(ctx, next.ID.String()), "booking invariant violated", err)
		return err
	}
	ok, err := s.repo.WithTx(tx).Transition(ctx, next, prev.Status, columns...)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking changed concurrently").
			WithDetails(map[string]any{"bookingId": prev.ID, "expected": prev.Status})
	}
	return nil
}

func (s *Service) emitBooking(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, from enums.BookingStatus, b *models.Booking, actor types.Actor, reason string) error {
	now := s.now().UTC()
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateBooking,
		AggregateID:   b.ID,
		Actor:         actorRef(actor),
		OccurredAt:    now,
		Data: payloads.BookingEvent{
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			CustomerID:    b.CustomerID,
			ArtisanID:     b.ArtisanID,
			FromStatus:    from,
			Status:        b.Status,
			PaymentStatus: b.PaymentStatus,
			AgreedPrice:   b.AgreedPrice,
			TotalAmount:   b.TotalAmount,
			Reason:        reason,
			ActorRole:     actor.Role,
			OccurredAt:    now,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit booking event")
	}
	return nil
}

func (s *Service) emitNegotiation(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, b *models.Booking, n *models.Negotiation, round *models.NegotiationRound, actor types.Actor) error {
	data := payloads.NegotiationEvent{
		NegotiationID: n.ID,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		CustomerID:    b.CustomerID,
		ArtisanID:     b.ArtisanID,
		Status:        n.Status,
		Round:         n.CurrentRound,
	}
	if round == nil {
		round = n.LastRound()
	}
	if round != nil {
		data.Round = round.RoundNumber
		data.ProposedBy = round.ProposedBy
		data.Amount = round.Amount
		if round.Message != nil {
			data.Message = *round.Message
		}
	}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateBooking,
		AggregateID:   b.ID,
		Actor:         actorRef(actor),
		OccurredAt:    s.now().UTC(),
		Data:          data,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit negotiation event")
	}
	return nil
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	if actor.IsSystem() {
		return outbox.SystemActor()
	}
	return &outbox.ActorRef{UserID: actor.ID, Role: actor.Role}
}

func canView(b *models.Booking, actor types.Actor) error {
	if actor.IsAdmin() || actor.IsSystem() || b.IsParty(actor.ID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this booking")
}

func requireArtisan(b *models.Booking, actor types.Actor) error {
	if actor.Role != enums.ActorRoleArtisan || actor.ID != b.ArtisanID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the booked artisan can do this")
	}
	return nil
}

func requireCustomer(b *models.Booking, actor types.Actor) error {
	if actor.Role != enums.ActorRoleCustomer || actor.ID != b.CustomerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the booking customer can do this")
	}
	return nil
}

// requireParty checks that actor is the customer or artisan of record, in the
// role they claim.
func requireParty(b *models.Booking, actor types.Actor) error {
	switch actor.Role {
	case enums.ActorRoleCustomer:
		return requireCustomer(b, actor)
	case enums.ActorRoleArtisan:
		return requireArtisan(b, actor)
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this booking")
}

func invalidState(b *models.Booking, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s a %s booking", action, b.Status)).
		WithDetails(map[string]any{"bookingId": b.ID, "status": b.Status})
}

func statusIn(s enums.BookingStatus, allowed ...enums.BookingStatus) bool {
	for _, candidate := range allowed {
		if candidate == s {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T {
	return &v
}
