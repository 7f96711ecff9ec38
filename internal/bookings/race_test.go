package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/dbtest"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
)

func TestLateAcceptRacesExpirySweep(t *testing.T) {
	for i := 0; i < 5; i++ {
		h := newHarness(t)
		ctx := context.Background()
		b := h.create(t, fixed(5000))
		h.clock.Advance(3 * time.Minute)

		var acceptErr error
		var swept bool
		errs := dbtest.Race(
			func() error {
				_, acceptErr = h.svc.Accept(ctx, h.artisan, b.ID)
				if pkgerrors.IsCode(acceptErr, pkgerrors.CodeExpired) || pkgerrors.IsCode(acceptErr, pkgerrors.CodeStateConflict) {
					return nil
				}
				return acceptErr
			},
			func() error {
				var err error
				swept, err = h.svc.ExpirePending(ctx, b.ID)
				return err
			},
		)
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		acceptExpired := pkgerrors.IsCode(acceptErr, pkgerrors.CodeExpired)
		require.NotEqual(t, acceptExpired, swept, "exactly one side commits the expiry")
		if swept {
			requireCode(t, acceptErr, pkgerrors.CodeStateConflict)
		}

		stored := h.reload(t, b.ID)
		require.Equal(t, enums.BookingStatusDeclined, stored.Status)
		require.Equal(t, ExpiredDeclineReason, *stored.DeclineReason)
		require.Nil(t, stored.AgreedPrice)
		require.Equal(t, int64(1), h.events(t, enums.EventBookingExpired))
		require.Equal(t, int64(0), h.events(t, enums.EventBookingAccepted))
	}
}

func TestManualReleaseRacesAutoRelease(t *testing.T) {
	for i := 0; i < 5; i++ {
		h := newHarness(t)
		ctx := context.Background()
		b, e := h.completed(t)
		h.clock.Advance(48 * time.Hour)

		var manual *models.Booking
		var auto bool
		errs := dbtest.Race(
			func() error {
				var err error
				manual, err = h.svc.Release(ctx, h.customer, b.ID)
				return err
			},
			func() error {
				var err error
				auto, err = h.svc.AutoRelease(ctx, e.ID)
				return err
			},
		)
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		require.Equal(t, enums.BookingStatusPaymentReleased, manual.Status)

		released, err := h.escrows.FindByID(ctx, nil, e.ID)
		require.NoError(t, err)
		require.Equal(t, enums.EscrowStatusReleased, released.Status)
		wantType := enums.ReleaseTypeManual
		if auto {
			wantType = enums.ReleaseTypeAuto
		}
		require.Equal(t, wantType, *released.ReleaseType)

		var payouts int64
		require.NoError(t, h.conn.Model(&models.Transaction{}).
			Where("booking_id = ? AND type = ?", b.ID, enums.TransactionTypePayout).
			Count(&payouts).Error)
		require.Equal(t, int64(1), payouts)
		require.Equal(t, int64(1), h.events(t, enums.EventEscrowReleased))

		profile, err := h.profiles.FindArtisan(ctx, h.artisan.ID)
		require.NoError(t, err)
		require.Equal(t, int64(5000), profile.TotalEarnings)
		require.NoError(t, CheckInvariants(h.reload(t, b.ID), released))
	}
}
