package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBooking     OutboxAggregateType = "booking"
	AggregateEscrow      OutboxAggregateType = "escrow"
	AggregatePayment     OutboxAggregateType = "payment"
	AggregateTransaction OutboxAggregateType = "transaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBooking,
	AggregateEscrow,
	AggregatePayment,
	AggregateTransaction,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBookingCreated        OutboxEventType = "booking_created"
	EventBookingAccepted       OutboxEventType = "booking_accepted"
	EventBookingDeclined       OutboxEventType = "booking_declined"
	EventBookingExpired        OutboxEventType = "booking_expired"
	EventNegotiationRoundAdded OutboxEventType = "negotiation_round_added"
	EventNegotiationAgreed     OutboxEventType = "negotiation_agreed"
	EventNegotiationRejected   OutboxEventType = "negotiation_rejected"
	EventNegotiationExpired    OutboxEventType = "negotiation_expired"
	EventPaymentConfirmed      OutboxEventType = "payment_confirmed"
	EventPaymentFailed         OutboxEventType = "payment_failed"
	EventJobStarted            OutboxEventType = "job_started"
	EventJobCompleted          OutboxEventType = "job_completed"
	EventBookingCancelled      OutboxEventType = "booking_cancelled"
	EventEscrowReleased        OutboxEventType = "escrow_released"
	EventEscrowRefunded        OutboxEventType = "escrow_refunded"
	EventBookingDisputed       OutboxEventType = "booking_disputed"
	EventPayoutProcessed       OutboxEventType = "payout_processed"
	EventPaymentRefunded       OutboxEventType = "payment_refunded"
	EventBookingReminder       OutboxEventType = "booking_reminder"
	EventPaymentReminder       OutboxEventType = "payment_reminder"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingCreated,
	EventBookingAccepted,
	EventBookingDeclined,
	EventBookingExpired,
	EventNegotiationRoundAdded,
	EventNegotiationAgreed,
	EventNegotiationRejected,
	EventNegotiationExpired,
	EventPaymentConfirmed,
	EventPaymentFailed,
	EventJobStarted,
	EventJobCompleted,
	EventBookingCancelled,
	EventEscrowReleased,
	EventEscrowRefunded,
	EventBookingDisputed,
	EventPayoutProcessed,
	EventPaymentRefunded,
	EventBookingReminder,
	EventPaymentReminder,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
