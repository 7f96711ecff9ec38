package negotiation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
)

const (
	DefaultMaxRounds = 3
	DefaultTTL       = 24 * time.Hour
)

// Proposal is one price offer from a party to the booking.
type Proposal struct {
	Role       enums.ActorRole
	ProposerID uuid.UUID
	Amount     int64
	Message    string
}

type EngineParams struct {
	Repo      Repository
	MaxRounds int
	TTL       time.Duration
	Now       func() time.Time
}

// Engine runs the bounded counter-offer exchange. Every method works inside
// the caller's transaction; the booking state machine owns the commit.
type Engine struct {
	repo      Repository
	maxRounds int
	ttl       time.Duration
	now       func() time.Time
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("negotiation repository required")
	}
	maxRounds := params.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{repo: params.Repo, maxRounds: maxRounds, ttl: ttl, now: now}, nil
}

// Start opens the negotiation for a booking, or returns the active one.
func (e *Engine) Start(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*models.Negotiation, error) {
	repo := e.repo.WithTx(tx)
	existing, err := repo.FindByBooking(ctx, bookingID)
	switch {
	case err == nil:
		if existing.Status != enums.NegotiationStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "negotiation already closed")
		}
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load negotiation")
	}

	now := e.now().UTC()
	n := &models.Negotiation{
		BookingID: bookingID,
		Status:    enums.NegotiationStatusActive,
		MaxRounds: e.maxRounds,
		ExpiresAt: now.Add(e.ttl),
	}
	if err := repo.Create(ctx, n); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "negotiation already started")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create negotiation")
	}
	return n, nil
}

// Find loads a negotiation with its rounds.
func (e *Engine) Find(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) (*models.Negotiation, error) {
	n, err := e.repo.WithTx(tx).FindByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "negotiation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load negotiation")
	}
	return n, nil
}

// AddRound appends a proposal. A negotiation past its deadline is marked
// expired and CodeExpired is returned; the caller decides what happens to the
// booking.
func (e *Engine) AddRound(ctx context.Context, tx *gorm.DB, negotiationID uuid.UUID, p Proposal) (*models.Negotiation, *models.NegotiationRound, error) {
	if p.Amount <= 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	if p.Role != enums.ActorRoleCustomer && p.Role != enums.ActorRoleArtisan {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "only booking parties can negotiate")
	}
	repo := e.repo.WithTx(tx)
	n, err := e.load(ctx, repo, negotiationID)
	if err != nil {
		return nil, nil, err
	}
	if n.Status != enums.NegotiationStatusActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "negotiation is not active").
			WithDetails(map[string]any{"status": n.Status})
	}
	now := e.now().UTC()
	if now.After(n.ExpiresAt) {
		if _, err := e.expire(ctx, repo, n, now); err != nil {
			return nil, nil, err
		}
		return n, nil, pkgerrors.New(pkgerrors.CodeExpired, "negotiation has expired")
	}
	if n.CurrentRound >= n.MaxRounds {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNegotiationExhausted, "maximum negotiation rounds reached").
			WithDetails(map[string]any{"maxRounds": n.MaxRounds})
	}
	if last := n.LastRound(); last != nil && last.ProposedBy == p.Role {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "waiting for the other party to respond")
	}

	advanced, err := repo.AdvanceRound(ctx, n.ID, n.CurrentRound)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance negotiation round")
	}
	if !advanced {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "negotiation changed concurrently")
	}
	if last := n.LastRound(); last != nil && last.Response == enums.RoundResponsePending {
		if err := repo.SetRoundResponse(ctx, last.ID, enums.RoundResponseCountered); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark round countered")
		}
		last.Response = enums.RoundResponseCountered
	}

	round := &models.NegotiationRound{
		NegotiationID: n.ID,
		RoundNumber:   n.CurrentRound + 1,
		ProposedBy:    p.Role,
		ProposerID:    p.ProposerID,
		Amount:        p.Amount,
		Response:      enums.RoundResponsePending,
	}
	if msg := strings.TrimSpace(p.Message); msg != "" {
		round.Message = &msg
	}
	if err := repo.InsertRound(ctx, round); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "round already proposed")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert negotiation round")
	}
	n.CurrentRound++
	n.Rounds = append(n.Rounds, *round)
	return n, round, nil
}

// Accept agrees to the last round. The agreed amount is that round's amount.
func (e *Engine) Accept(ctx context.Context, tx *gorm.DB, negotiationID uuid.UUID, by enums.ActorRole) (*models.Negotiation, int64, error) {
	repo := e.repo.WithTx(tx)
	n, last, err := e.respondable(ctx, repo, negotiationID, by)
	if err != nil {
		return n, 0, err
	}
	amount := last.Amount
	if err := e.close(ctx, repo, n, enums.NegotiationStatusAgreed, &amount); err != nil {
		return nil, 0, err
	}
	if err := repo.SetRoundResponse(ctx, last.ID, enums.RoundResponseAccepted); err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark round accepted")
	}
	n.AgreedAmount = &amount
	return n, amount, nil
}

// Reject closes the negotiation without agreement.
func (e *Engine) Reject(ctx context.Context, tx *gorm.DB, negotiationID uuid.UUID, by enums.ActorRole) (*models.Negotiation, error) {
	repo := e.repo.WithTx(tx)
	n, last, err := e.respondable(ctx, repo, negotiationID, by)
	if err != nil {
		return n, err
	}
	if err := e.close(ctx, repo, n, enums.NegotiationStatusRejected, nil); err != nil {
		return nil, err
	}
	if err := repo.SetRoundResponse(ctx, last.ID, enums.RoundResponseRejected); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark round rejected")
	}
	return n, nil
}

// Expire closes an active negotiation whose deadline passed. It reports false
// when there was nothing to do.
func (e *Engine) Expire(ctx context.Context, tx *gorm.DB, negotiationID uuid.UUID) (bool, error) {
	repo := e.repo.WithTx(tx)
	n, err := e.load(ctx, repo, negotiationID)
	if err != nil {
		return false, err
	}
	now := e.now().UTC()
	if n.Status != enums.NegotiationStatusActive || now.Before(n.ExpiresAt) {
		return false, nil
	}
	return e.expire(ctx, repo, n, now)
}

// CloseForBooking marks an active negotiation as rejected because its booking left the
// negotiating state by another route (cancellation).
func (e *Engine) CloseForBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) error {
	repo := e.repo.WithTx(tx)
	n, err := repo.FindByBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load negotiation")
	}
	if n.Status != enums.NegotiationStatusActive {
		return nil
	}
	_, err = repo.Close(ctx, n.ID, enums.NegotiationStatusRejected, nil, e.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close negotiation")
	}
	return nil
}

// ListExpired returns active negotiations past their deadline.
func (e *Engine) ListExpired(ctx context.Context, limit int) ([]models.Negotiation, error) {
	return e.repo.ListExpired(ctx, e.now().UTC(), limit)
}

func (e *Engine) MaxRounds() int { return e.maxRounds }

func (e *Engine) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Negotiation, error) {
	n, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "negotiation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load negotiation")
	}
	return n, nil
}

func (e *Engine) respondable(ctx context.Context, repo Repository, id uuid.UUID, by enums.ActorRole) (*models.Negotiation, *models.NegotiationRound, error) {
	n, err := e.load(ctx, repo, id)
	if err != nil {
		return nil, nil, err
	}
	if n.Status != enums.NegotiationStatusActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "negotiation is not active").
			WithDetails(map[string]any{"status": n.Status})
	}
	now := e.now().UTC()
	if now.After(n.ExpiresAt) {
		if _, err := e.expire(ctx, repo, n, now); err != nil {
			return nil, nil, err
		}
		return n, nil, pkgerrors.New(pkgerrors.CodeExpired, "negotiation has expired")
	}
	last := n.LastRound()
	if last == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no offer to respond to")
	}
	if last.ProposedBy == by {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot respond to your own offer")
	}
	return n, last, nil
}

func (e *Engine) close(ctx context.Context, repo Repository, n *models.Negotiation, status enums.NegotiationStatus, amount *int64) error {
	now := e.now().UTC()
	ok, err := repo.Close(ctx, n.ID, status, amount, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close negotiation")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "negotiation changed concurrently")
	}
	n.Status = status
	n.ClosedAt = &now
	return nil
}

func (e *Engine) expire(ctx context.Context, repo Repository, n *models.Negotiation, now time.Time) (bool, error) {
	ok, err := repo.Close(ctx, n.ID, enums.NegotiationStatusExpired, nil, now)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire negotiation")
	}
	if ok {
		n.Status = enums.NegotiationStatusExpired
		n.ClosedAt = &now
	}
	return ok, nil
}
