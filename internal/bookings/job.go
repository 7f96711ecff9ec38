package bookings

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
	"github.com/Davidayo16/ArtisanPro-server/pkg/types"
)

const minCompletionNotes = 20

// CompleteInput is the artisan's proof of work.
type CompleteInput struct {
	Notes               string
	Photos              []string
	WorkDurationMinutes *int
}

func (in CompleteInput) validate() error {
	photos := 0
	for _, p := range in.Photos {
		if strings.TrimSpace(p) != "" {
			photos++
		}
	}
	if photos == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one completion photo is required")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Notes)) < minCompletionNotes {
		return pkgerrors.New(pkgerrors.CodeValidation, "completion notes must be at least 20 characters")
	}
	if in.WorkDurationMinutes != nil && *in.WorkDurationMinutes < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "work duration cannot be negative")
	}
	return nil
}

// StartJob moves a paid booking into progress.
func (s *Service) StartJob(ctx context.Context, actor types.Actor, id uuid.UUID) (*models.Booking, error) {
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireArtisan(b, actor); err != nil {
			return err
		}
		if b.Status != enums.BookingStatusConfirmed {
			return invalidState(b, "start")
		}
		now := s.now().UTC()
		next := *b
		next.Status = enums.BookingStatusInProgress
		next.StartedAt = &now
		if err := s.commit(ctx, tx, b, &next, nil, "started_at"); err != nil {
			return err
		}
		if err := s.emitBooking(ctx, tx, enums.EventJobStarted, b.Status, &next, actor, ""); err != nil {
			return err
		}
		change = &Change{Booking: &next, From: b.Status, ActorRole: actor.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, change)
	return change.Booking, nil
}

// CompleteJob records the finished work. The final price is the agreed price.
func (s *Service) CompleteJob(ctx context.Context, actor types.Actor, id uuid.UUID, in CompleteInput) (*models.Booking, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var change *Change
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		b, err := s.load(ctx, s.repo.WithTx(tx), id)
		if err != nil {
			return err
		}
		if err := requireArtisan(b, actor); err != nil {
			return err
		}
		if b.Status != enums.BookingStatusInProgress {
			return invalidState(b, "complete")
		}
		now := s.now().UTC()
		duration := in.WorkDurationMinutes
		if duration == nil && b.StartedAt != nil {
			duration = ptr(int(now.Sub(*b.StartedAt).Minutes()))
		}
		photos := make([]string, 0, len(in.Photos))
		for _, p := range in.Photos {
			if p = strings.TrimSpace(p); p != "" {
				photos = append(photos, p)
			}
		}
		notes := strings.TrimSpace(in.Notes)

		next := *b
		next.Status = enums.BookingStatusCompleted
		next.CompletedAt = &now
		next.FinalPrice = b.AgreedPrice
		next.CompletionNotes = &notes
		next.CompletionPhotos = photos
		next.WorkDurationMinutes = duration
		if err := s.commit(ctx, tx, b, &next, nil,
			"completed_at", "final_price", "completion_notes", "completion_photos", "work_duration_minutes"); err != nil {
			return err
		}
		if err := s.profiles.RecordJobCompleted(ctx, tx, b.ArtisanID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record job completed")
		}
		if err := s.emitBooking(ctx, tx, enums.EventJobCompleted, b.Status, &next, actor, ""); err != nil {
			return err
		}
		change = &Change{Booking: &next, From: b.Status, ActorRole: actor.Role}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Committed(ctx, change)
	return change.Booking, nil
}
