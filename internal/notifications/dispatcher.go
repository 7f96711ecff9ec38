package notifications

import (
	"context"
	"fmt"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/google/uuid"
)

// Notice is one message addressed to one user, derived from a booking event.
type Notice struct {
	EventID   uuid.UUID
	EventType enums.OutboxEventType
	UserID    uuid.UUID
	Type      enums.NotificationType
	Title     string
	Message   string
	BookingID *uuid.UUID
}

// Dispatcher delivers notices. Delivery is best-effort: callers log a
// returned error and move on.
type Dispatcher interface {
	Notify(ctx context.Context, notice Notice) error
}

type noticeWriter interface {
	Create(ctx context.Context, notification *models.Notification) (bool, error)
}

// StoreDispatcher keeps notices as in-app notifications.
type StoreDispatcher struct {
	repo noticeWriter
}

func NewStoreDispatcher(repo noticeWriter) (*StoreDispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &StoreDispatcher{repo: repo}, nil
}

func (d *StoreDispatcher) Notify(ctx context.Context, notice Notice) error {
	if notice.UserID == uuid.Nil {
		return fmt.Errorf("notice recipient missing")
	}
	_, err := d.repo.Create(ctx, &models.Notification{
		UserID:    notice.UserID,
		EventID:   notice.EventID,
		Type:      notice.Type,
		Title:     notice.Title,
		Message:   notice.Message,
		BookingID: notice.BookingID,
	})
	return err
}
