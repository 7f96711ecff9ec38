package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeBookingRequest NotificationType = "booking_request"
	NotificationTypeBookingUpdate  NotificationType = "booking_update"
	NotificationTypeNegotiation    NotificationType = "negotiation"
	NotificationTypePayment        NotificationType = "payment"
	NotificationTypePayout         NotificationType = "payout"
	NotificationTypeDispute        NotificationType = "dispute"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeBookingRequest,
	NotificationTypeBookingUpdate,
	NotificationTypeNegotiation,
	NotificationTypePayment,
	NotificationTypePayout,
	NotificationTypeDispute,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
