package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/dbtest"
	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

func seedNotification(t *testing.T, repo Repository, userID uuid.UUID, createdAt time.Time, readAt *time.Time) models.Notification {
	t.Helper()
	n := models.Notification{
		UserID:    userID,
		EventID:   uuid.New(),
		Type:      enums.NotificationTypeBookingUpdate,
		Title:     "Booking accepted",
		Message:   "Your booking was accepted.",
		ReadAt:    readAt,
		CreatedAt: createdAt,
	}
	created, err := repo.Create(context.Background(), &n)
	require.NoError(t, err)
	require.True(t, created)
	return n
}

func TestRepositoryCreateIgnoresRedeliveredEvent(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	userID, eventID := uuid.New(), uuid.New()

	first := &models.Notification{UserID: userID, EventID: eventID, Type: enums.NotificationTypePayment, Title: "Payment confirmed", Message: "ok"}
	created, err := repo.Create(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	again := &models.Notification{UserID: userID, EventID: eventID, Type: enums.NotificationTypePayment, Title: "Payment confirmed", Message: "ok"}
	created, err = repo.Create(ctx, again)
	require.NoError(t, err)
	require.False(t, created)

	other := &models.Notification{UserID: uuid.New(), EventID: eventID, Type: enums.NotificationTypePayment, Title: "Booking confirmed", Message: "ok"}
	created, err = repo.Create(ctx, other)
	require.NoError(t, err)
	require.True(t, created, "the same event may notify another user")
}

func TestRepositoryListPaginatesNewestFirst(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	var seeded []models.Notification
	for i := 0; i < 3; i++ {
		seeded = append(seeded, seedNotification(t, repo, userID, base.Add(time.Duration(i)*time.Minute), nil))
	}
	seedNotification(t, repo, uuid.New(), base, nil)

	page, cursor, err := repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, seeded[2].ID, page[0].ID)
	require.Equal(t, seeded[1].ID, page[1].ID)
	require.NotNil(t, cursor)

	page, cursor, err = repo.List(ctx, listNotificationsParams{UserID: userID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, seeded[0].ID, page[0].ID)
	require.Nil(t, cursor)
}

func TestRepositoryMarkRead(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	n := seedNotification(t, repo, userID, now.Add(-time.Hour), nil)
	seedNotification(t, repo, userID, now.Add(-time.Minute), nil)

	mark, err := repo.MarkRead(ctx, uuid.New(), n.ID, now)
	require.NoError(t, err)
	require.False(t, mark.Found, "another user cannot read it")

	mark, err = repo.MarkRead(ctx, userID, n.ID, now)
	require.NoError(t, err)
	require.True(t, mark.Updated)

	mark, err = repo.MarkRead(ctx, userID, n.ID, now)
	require.NoError(t, err)
	require.True(t, mark.Found)
	require.False(t, mark.Updated)

	unread, _, err := repo.List(ctx, listNotificationsParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)

	count, err := repo.MarkAllRead(ctx, userID, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestRepositoryDeleteReadBefore(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-40 * 24 * time.Hour)
	readAt := old.Add(time.Hour)

	seedNotification(t, repo, userID, old, &readAt)
	keptUnread := seedNotification(t, repo, userID, old, nil)
	keptRecent := seedNotification(t, repo, userID, now.Add(-time.Hour), &readAt)

	deleted, err := repo.DeleteReadBefore(ctx, nil, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	rest, _, err := repo.List(ctx, listNotificationsParams{UserID: userID})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	ids := []uuid.UUID{rest[0].ID, rest[1].ID}
	require.ElementsMatch(t, []uuid.UUID{keptUnread.ID, keptRecent.ID}, ids)
}
