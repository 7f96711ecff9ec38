package negotiation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/dbtest"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newEngine(t *testing.T) (*Engine, *gorm.DB, *clock) {
	t.Helper()
	conn := dbtest.Open(t)
	clk := &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	engine, err := NewEngine(EngineParams{Repo: NewRepository(conn), Now: clk.now})
	require.NoError(t, err)
	return engine, conn, clk
}

func proposal(role enums.ActorRole, amount int64) Proposal {
	return Proposal{Role: role, ProposerID: uuid.New(), Amount: amount}
}

func TestAddRoundBoundedByMaxRounds(t *testing.T) {
	engine, conn, _ := newEngine(t)
	ctx := context.Background()

	n, err := engine.Start(ctx, conn, uuid.New())
	require.NoError(t, err)
	require.Equal(t, DefaultMaxRounds, n.MaxRounds)

	_, _, err = engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleArtisan, 8000))
	require.NoError(t, err)
	_, _, err = engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleCustomer, 6000))
	require.NoError(t, err)
	n, round, err := engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleArtisan, 7000))
	require.NoError(t, err)
	require.Equal(t, 3, round.RoundNumber)
	require.Equal(t, 3, n.CurrentRound)

	for _, role := range []enums.ActorRole{enums.ActorRoleCustomer, enums.ActorRoleArtisan} {
		_, _, err = engine.AddRound(ctx, conn, n.ID, proposal(role, 6500))
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNegotiationExhausted), "role %s: %v", role, err)
	}

	stored, err := engine.Find(ctx, conn, n.BookingID)
	require.NoError(t, err)
	require.Len(t, stored.Rounds, 3)
	require.Equal(t, enums.RoundResponseCountered, stored.Rounds[0].Response)
	require.Equal(t, enums.RoundResponseCountered, stored.Rounds[1].Response)
	require.Equal(t, enums.RoundResponsePending, stored.Rounds[2].Response)

	n, agreed, err := engine.Accept(ctx, conn, n.ID, enums.ActorRoleCustomer)
	require.NoError(t, err)
	require.Equal(t, int64(7000), agreed)
	require.Equal(t, enums.NegotiationStatusAgreed, n.Status)

	_, _, err = engine.Accept(ctx, conn, n.ID, enums.ActorRoleCustomer)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAddRoundValidation(t *testing.T) {
	engine, conn, _ := newEngine(t)
	ctx := context.Background()
	n, err := engine.Start(ctx, conn, uuid.New())
	require.NoError(t, err)

	_, _, err = engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleArtisan, 0))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleAdmin, 100))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, _, err = engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleArtisan, 100))
	require.NoError(t, err)
	_, _, err = engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleArtisan, 90))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "same party cannot counter itself")

	_, _, err = engine.Accept(ctx, conn, n.ID, enums.ActorRoleArtisan)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "cannot accept own offer")

	_, _, err = engine.AddRound(ctx, conn, uuid.New(), proposal(enums.ActorRoleCustomer, 100))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddRoundAfterDeadlineExpires(t *testing.T) {
	engine, conn, clk := newEngine(t)
	ctx := context.Background()
	n, err := engine.Start(ctx, conn, uuid.New())
	require.NoError(t, err)

	clk.t = clk.t.Add(DefaultTTL + time.Second)
	n, _, err = engine.AddRound(ctx, conn, n.ID, proposal(enums.ActorRoleArtisan, 100))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExpired))
	require.Equal(t, enums.NegotiationStatusExpired, n.Status)

	stored, err := engine.Find(ctx, conn, n.BookingID)
	require.NoError(t, err)
	require.Equal(t, enums.NegotiationStatusExpired, stored.Status)
	require.NotNil(t, stored.ClosedAt)
}

func TestRejectAndExpireSweep(t *testing.T) {
	engine, conn, clk := newEngine(t)
	ctx := context.Background()

	rejected, err := engine.Start(ctx, conn, uuid.New())
	require.NoError(t, err)
	_, _, err = engine.AddRound(ctx, conn, rejected.ID, proposal(enums.ActorRoleArtisan, 100))
	require.NoError(t, err)
	rejected, err = engine.Reject(ctx, conn, rejected.ID, enums.ActorRoleCustomer)
	require.NoError(t, err)
	require.Equal(t, enums.NegotiationStatusRejected, rejected.Status)

	stale, err := engine.Start(ctx, conn, uuid.New())
	require.NoError(t, err)

	expired, err := engine.ListExpired(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, expired)

	clk.t = clk.t.Add(DefaultTTL)
	expired, err = engine.ListExpired(ctx, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	require.Equal(t, stale.ID, expired[0].ID)

	ok, err := engine.Expire(ctx, conn, stale.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = engine.Expire(ctx, conn, stale.ID)
	require.NoError(t, err)
	require.False(t, ok, "re-expiring is a no-op")

	_, err = engine.Start(ctx, conn, stale.BookingID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCloseForBooking(t *testing.T) {
	engine, conn, _ := newEngine(t)
	ctx := context.Background()
	bookingID := uuid.New()

	require.NoError(t, engine.CloseForBooking(ctx, conn, bookingID), "no negotiation is fine")
	n, err := engine.Start(ctx, conn, bookingID)
	require.NoError(t, err)
	again, err := engine.Start(ctx, conn, bookingID)
	require.NoError(t, err)
	require.Equal(t, n.ID, again.ID)

	require.NoError(t, engine.CloseForBooking(ctx, conn, bookingID))
	stored, err := engine.Find(ctx, conn, bookingID)
	require.NoError(t, err)
	require.Equal(t, enums.NegotiationStatusRejected, stored.Status)
}
