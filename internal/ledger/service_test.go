package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/dbtest"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

type fakeRepository struct {
	created []*models.Transaction
}

func (f *fakeRepository) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepository) Create(_ context.Context, txn *models.Transaction) error {
	f.created = append(f.created, txn)
	return nil
}

func (f *fakeRepository) FindByID(context.Context, uuid.UUID) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindByReference(context.Context, string) (*models.Transaction, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListByBooking(context.Context, uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeRepository) ListPending(context.Context, enums.TransactionType, int) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeRepository) MarkProcessed(context.Context, uuid.UUID, Outcome) (bool, error) {
	return true, nil
}

func (f *fakeRepository) MarkInitiated(context.Context, uuid.UUID, string) (bool, error) {
	return true, nil
}

func TestService_RecordValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo, "")
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	valid := RecordInput{
		Type:      enums.TransactionTypePayout,
		BookingID: uuid.New(),
		UserID:    uuid.New(),
		Amount:    5000,
		Reference: "PAYOUT-1-x",
	}
	cases := map[string]func(in RecordInput) RecordInput{
		"missing booking":   func(in RecordInput) RecordInput { in.BookingID = uuid.Nil; return in },
		"missing user":      func(in RecordInput) RecordInput { in.UserID = uuid.Nil; return in },
		"bad type":          func(in RecordInput) RecordInput { in.Type = "bonus"; return in },
		"negative amount":   func(in RecordInput) RecordInput { in.Amount = -1; return in },
		"missing reference": func(in RecordInput) RecordInput { in.Reference = " "; return in },
	}
	for name, mutate := range cases {
		if _, err := svc.Record(context.Background(), nil, mutate(valid)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if len(repo.created) != 0 {
		t.Fatalf("invalid input must not be persisted")
	}

	txn, err := svc.Record(context.Background(), nil, valid)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if txn.Status != enums.TransactionStatusPending || txn.Currency != "NGN" {
		t.Fatalf("unexpected transaction %+v", txn)
	}
}

func TestService_MarkProcessedRequiresFinalStatus(t *testing.T) {
	svc, _ := NewService(&fakeRepository{}, "NGN")
	if _, err := svc.MarkProcessed(context.Background(), nil, uuid.New(), Outcome{Status: enums.TransactionStatusPending}); err == nil {
		t.Fatal("expected error for non-final outcome")
	}
}

func TestRepository_PendingPayoutLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, "NGN")
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	bookingID := uuid.New()
	escrowID := uuid.New()
	payout, err := svc.Record(ctx, conn, RecordInput{
		Type:        enums.TransactionTypePayout,
		BookingID:   bookingID,
		EscrowID:    &escrowID,
		UserID:      uuid.New(),
		Amount:      5000,
		Reference:   PayoutReference(now, escrowID),
		Description: "payout",
		Metadata:    map[string]string{"releaseType": "auto"},
	})
	require.NoError(t, err)
	_, err = svc.Record(ctx, conn, RecordInput{
		Type:      enums.TransactionTypeRefund,
		BookingID: bookingID,
		UserID:    uuid.New(),
		Amount:    5250,
		Reference: RefundReference(now, escrowID),
	})
	require.NoError(t, err)

	pending, err := svc.ListPendingPayouts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, payout.ID, pending[0].ID)
	require.JSONEq(t, `{"releaseType":"auto"}`, string(pending[0].Metadata))

	ok, err := svc.MarkProcessed(ctx, nil, payout.ID, Outcome{Status: enums.TransactionStatusSuccessful, GatewayReference: "TRF_1", ProcessedAt: now})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.MarkProcessed(ctx, nil, payout.ID, Outcome{Status: enums.TransactionStatusFailed, FailureReason: "late", ProcessedAt: now})
	require.NoError(t, err)
	require.False(t, ok, "processed entries are immutable")

	stored, err := repo.FindByID(ctx, payout.ID)
	require.NoError(t, err)
	require.Equal(t, enums.TransactionStatusSuccessful, stored.Status)
	require.NotNil(t, stored.GatewayReference)
	require.Equal(t, "TRF_1", *stored.GatewayReference)
	require.Nil(t, stored.FailureReason)

	all, err := repo.ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	pending, err = svc.ListPendingPayouts(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestReferences(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	require.Equal(t, "PAYOUT-1700000000123-11111111-1111-1111-1111-111111111111", PayoutReference(now, id))
	require.Equal(t, "REFUND-1700000000123-11111111-1111-1111-1111-111111111111", RefundReference(now, id))
}

func TestRepository_MarkInitiatedKeepsEntryPending(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, "NGN")
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	escrowID := uuid.New()
	payout, err := svc.Record(ctx, conn, RecordInput{
		Type:      enums.TransactionTypePayout,
		BookingID: uuid.New(),
		EscrowID:  &escrowID,
		UserID:    uuid.New(),
		Amount:    5000,
		Reference: PayoutReference(now, escrowID),
	})
	require.NoError(t, err)

	require.Error(t, svc.MarkInitiated(ctx, payout.ID, " "))
	require.NoError(t, svc.MarkInitiated(ctx, payout.ID, "TRF_9"))

	found, err := svc.FindByReference(ctx, " "+payout.Reference+" ")
	require.NoError(t, err)
	require.Equal(t, payout.ID, found.ID)
	require.Equal(t, enums.TransactionStatusPending, found.Status)
	require.NotNil(t, found.GatewayReference)
	require.Equal(t, "TRF_9", *found.GatewayReference)

	ok, err := svc.MarkProcessed(ctx, nil, payout.ID, Outcome{Status: enums.TransactionStatusSuccessful, ProcessedAt: now})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, svc.MarkInitiated(ctx, payout.ID, "TRF_late"))
	stored, err := repo.FindByID(ctx, payout.ID)
	require.NoError(t, err)
	require.Equal(t, "TRF_9", *stored.GatewayReference)

	_, err = svc.FindByReference(ctx, "PAYOUT-missing")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
