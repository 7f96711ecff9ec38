package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerProfile holds lifetime spend counters for a customer.
type CustomerProfile struct {
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	TotalSpent    int64     `gorm:"column:total_spent;not null;default:0"`
	TotalBookings int       `gorm:"column:total_bookings;not null;default:0"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ArtisanProfile holds booking and earnings counters for an artisan.
type ArtisanProfile struct {
	UserID                uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	TotalBookingRequests  int       `gorm:"column:total_booking_requests;not null;default:0"`
	TotalAcceptedBookings int       `gorm:"column:total_accepted_bookings;not null;default:0"`
	TotalJobsCompleted    int       `gorm:"column:total_jobs_completed;not null;default:0"`
	AcceptanceRate        float64   `gorm:"column:acceptance_rate;not null;default:0"`
	ResponseTimeMinutes   float64   `gorm:"column:response_time_minutes;not null;default:0"`
	TotalEarnings         int64     `gorm:"column:total_earnings;not null;default:0"`
	PayoutRecipientCode   *string   `gorm:"column:payout_recipient_code"`
	UpdatedAt             time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
