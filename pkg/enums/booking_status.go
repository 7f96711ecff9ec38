package enums

import "fmt"

// BookingStatus maps to the booking_status enum in Postgres.
type BookingStatus string

const (
	BookingStatusPending         BookingStatus = "pending"
	BookingStatusAccepted        BookingStatus = "accepted"
	BookingStatusDeclined        BookingStatus = "declined"
	BookingStatusNegotiating     BookingStatus = "negotiating"
	BookingStatusConfirmed       BookingStatus = "confirmed"
	BookingStatusInProgress      BookingStatus = "in_progress"
	BookingStatusCompleted       BookingStatus = "completed"
	BookingStatusPaymentReleased BookingStatus = "payment_released"
	BookingStatusCancelled       BookingStatus = "cancelled"
	BookingStatusDisputed        BookingStatus = "disputed"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusAccepted,
	BookingStatusDeclined,
	BookingStatusNegotiating,
	BookingStatusConfirmed,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusPaymentReleased,
	BookingStatusCancelled,
	BookingStatusDisputed,
}

// String implements fmt.Stringer.
func (s BookingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known BookingStatus.
func (s BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// HasAgreement reports whether a booking in this status carries an agreed price.
func (s BookingStatus) HasAgreement() bool {
	switch s {
	case BookingStatusAccepted, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusPaymentReleased:
		return true
	}
	return false
}

// IsCancellable reports whether either party may still cancel from this status.
func (s BookingStatus) IsCancellable() bool {
	switch s {
	case BookingStatusPending, BookingStatusNegotiating, BookingStatusAccepted,
		BookingStatusConfirmed, BookingStatusInProgress:
		return true
	}
	return false
}

// IsReviewable reports whether the job finished and may be reviewed.
func (s BookingStatus) IsReviewable() bool {
	return s == BookingStatusCompleted || s == BookingStatusPaymentReleased
}

// ParseBookingStatus converts raw input into a BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}
