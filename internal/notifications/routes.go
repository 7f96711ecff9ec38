package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox/payloads"
	"github.com/google/uuid"
)

// Route maps a booking event to the notices it produces. Event types that
// nobody is told about yield no notices.
func Route(eventType enums.OutboxEventType, data json.RawMessage) ([]Notice, error) {
	switch eventType {
	case enums.EventBookingCreated,
		enums.EventBookingAccepted,
		enums.EventBookingDeclined,
		enums.EventBookingExpired,
		enums.EventJobStarted,
		enums.EventJobCompleted,
		enums.EventBookingCancelled,
		enums.EventBookingDisputed,
		enums.EventBookingReminder,
		enums.EventPaymentReminder:
		var p payloads.BookingEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return bookingNotices(eventType, p), nil
	case enums.EventNegotiationRoundAdded,
		enums.EventNegotiationAgreed,
		enums.EventNegotiationRejected,
		enums.EventNegotiationExpired:
		var p payloads.NegotiationEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return negotiationNotices(eventType, p), nil
	case enums.EventPaymentConfirmed, enums.EventPaymentFailed, enums.EventPaymentRefunded:
		var p payloads.PaymentEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return paymentNotices(eventType, p), nil
	case enums.EventEscrowReleased, enums.EventEscrowRefunded:
		var p payloads.EscrowEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return escrowNotices(eventType, p), nil
	case enums.EventPayoutProcessed:
		var p payloads.PayoutEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", eventType, err)
		}
		return payoutNotices(p), nil
	default:
		return nil, nil
	}
}

func notice(eventType enums.OutboxEventType, userID, bookingID uuid.UUID, kind enums.NotificationType, title, message string) Notice {
	n := Notice{
		EventType: eventType,
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
	}
	if bookingID != uuid.Nil {
		id := bookingID
		n.BookingID = &id
	}
	return n
}

func bookingNotices(eventType enums.OutboxEventType, p payloads.BookingEvent) []Notice {
	ref := p.BookingNumber
	toCustomer := func(title, message string) Notice {
		return notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypeBookingUpdate, title, message)
	}
	toArtisan := func(kind enums.NotificationType, title, message string) Notice {
		return notice(eventType, p.ArtisanID, p.BookingID, kind, title, message)
	}

	switch eventType {
	case enums.EventBookingCreated:
		return []Notice{toArtisan(enums.NotificationTypeBookingRequest, "New booking request",
			fmt.Sprintf("You have a new booking request %s. Respond before it expires.", ref))}
	case enums.EventBookingAccepted:
		return []Notice{toCustomer("Booking accepted",
			fmt.Sprintf("Your booking %s was accepted. Complete payment to confirm it.", ref))}
	case enums.EventBookingDeclined:
		message := fmt.Sprintf("Your booking %s was declined.", ref)
		if p.Reason != "" {
			message = fmt.Sprintf("Your booking %s was declined: %s", ref, p.Reason)
		}
		return []Notice{toCustomer("Booking declined", message)}
	case enums.EventBookingExpired:
		return []Notice{
			toCustomer("Booking expired", fmt.Sprintf("The artisan did not respond to booking %s in time.", ref)),
			toArtisan(enums.NotificationTypeBookingUpdate, "Booking request expired",
				fmt.Sprintf("Booking request %s expired before you responded.", ref)),
		}
	case enums.EventJobStarted:
		return []Notice{toCustomer("Job started", fmt.Sprintf("The artisan started work on booking %s.", ref))}
	case enums.EventJobCompleted:
		return []Notice{toCustomer("Job completed",
			fmt.Sprintf("Booking %s is complete. Release payment or raise a dispute if something is wrong.", ref))}
	case enums.EventBookingCancelled:
		message := fmt.Sprintf("Booking %s was cancelled.", ref)
		if p.Reason != "" {
			message = fmt.Sprintf("Booking %s was cancelled: %s", ref, p.Reason)
		}
		var out []Notice
		if p.ActorRole != enums.ActorRoleCustomer {
			out = append(out, toCustomer("Booking cancelled", message))
		}
		if p.ActorRole != enums.ActorRoleArtisan {
			out = append(out, toArtisan(enums.NotificationTypeBookingUpdate, "Booking cancelled", message))
		}
		return out
	case enums.EventBookingDisputed:
		message := fmt.Sprintf("A dispute was opened on booking %s. Payment is on hold until it is resolved.", ref)
		return []Notice{
			notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypeDispute, "Dispute opened", message),
			notice(eventType, p.ArtisanID, p.BookingID, enums.NotificationTypeDispute, "Dispute opened", message),
		}
	case enums.EventBookingReminder:
		return []Notice{
			toCustomer("Job tomorrow", fmt.Sprintf("Your booking %s is scheduled for tomorrow.", ref)),
			toArtisan(enums.NotificationTypeBookingUpdate, "Job tomorrow",
				fmt.Sprintf("You have booking %s scheduled for tomorrow.", ref)),
		}
	case enums.EventPaymentReminder:
		message := fmt.Sprintf("Booking %s is accepted and waiting for your payment.", ref)
		if p.TotalAmount != nil {
			message = fmt.Sprintf("Booking %s is accepted. Pay %d to confirm it.", ref, *p.TotalAmount)
		}
		return []Notice{notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypePayment, "Payment pending", message)}
	}
	return nil
}

func negotiationNotices(eventType enums.OutboxEventType, p payloads.NegotiationEvent) []Notice {
	ref := p.BookingNumber
	both := func(title, message string) []Notice {
		return []Notice{
			notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypeNegotiation, title, message),
			notice(eventType, p.ArtisanID, p.BookingID, enums.NotificationTypeNegotiation, title, message),
		}
	}

	switch eventType {
	case enums.EventNegotiationRoundAdded:
		recipient := p.CustomerID
		title := "New price proposal"
		if p.ProposedBy == enums.ActorRoleCustomer {
			recipient = p.ArtisanID
			title = "New counter offer"
		}
		return []Notice{notice(eventType, recipient, p.BookingID, enums.NotificationTypeNegotiation, title,
			fmt.Sprintf("Round %d on booking %s: %d offered.", p.Round, ref, p.Amount))}
	case enums.EventNegotiationAgreed:
		return both("Price agreed", fmt.Sprintf("A price of %d was agreed for booking %s.", p.Amount, ref))
	case enums.EventNegotiationRejected:
		return both("Negotiation ended", fmt.Sprintf("The price negotiation for booking %s was rejected.", ref))
	case enums.EventNegotiationExpired:
		return both("Negotiation expired", fmt.Sprintf("The price negotiation for booking %s expired.", ref))
	}
	return nil
}

func paymentNotices(eventType enums.OutboxEventType, p payloads.PaymentEvent) []Notice {
	if eventType == enums.EventPaymentRefunded {
		return []Notice{notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypePayment, "Refund issued",
			fmt.Sprintf("Booking %s was no longer awaiting payment, so your payment %s of %d will be refunded.", p.BookingNumber, p.Reference, p.Amount))}
	}
	if eventType == enums.EventPaymentFailed {
		message := fmt.Sprintf("Payment %s for booking %s failed.", p.Reference, p.BookingNumber)
		if p.FailureReason != "" {
			message = fmt.Sprintf("Payment %s for booking %s failed: %s", p.Reference, p.BookingNumber, p.FailureReason)
		}
		return []Notice{notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypePayment, "Payment failed", message)}
	}
	return []Notice{
		notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypePayment, "Payment confirmed",
			fmt.Sprintf("We received %d for booking %s. It is held in escrow until the job is done.", p.Amount, p.BookingNumber)),
		notice(eventType, p.ArtisanID, p.BookingID, enums.NotificationTypePayment, "Booking confirmed",
			fmt.Sprintf("Booking %s is paid and confirmed.", p.BookingNumber)),
	}
}

func escrowNotices(eventType enums.OutboxEventType, p payloads.EscrowEvent) []Notice {
	if eventType == enums.EventEscrowRefunded {
		return []Notice{notice(eventType, p.CustomerID, p.BookingID, enums.NotificationTypePayment, "Refund issued",
			fmt.Sprintf("%d held for your booking was refunded.", p.Amount))}
	}
	return []Notice{notice(eventType, p.ArtisanID, p.BookingID, enums.NotificationTypePayment, "Payment released",
		fmt.Sprintf("%d was released to you for a completed booking.", p.ArtisanAmount))}
}

func payoutNotices(p payloads.PayoutEvent) []Notice {
	title := "Payout sent"
	message := fmt.Sprintf("Your payout %s of %d was sent.", p.Reference, p.Amount)
	if p.Status == enums.TransactionStatusFailed {
		title = "Payout failed"
		message = fmt.Sprintf("Your payout %s of %d failed.", p.Reference, p.Amount)
		if p.FailureReason != "" {
			message = fmt.Sprintf("Your payout %s of %d failed: %s", p.Reference, p.Amount, p.FailureReason)
		}
	}
	return []Notice{notice(enums.EventPayoutProcessed, p.ArtisanID, p.BookingID, enums.NotificationTypePayout, title, message)}
}
