package notifications

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	"github.com/Davidayo16/ArtisanPro-server/pkg/outbox/payloads"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func recipients(notices []Notice) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(notices))
	for _, n := range notices {
		out = append(out, n.UserID)
	}
	return out
}

func TestRouteRecipients(t *testing.T) {
	customer, artisan, booking := uuid.New(), uuid.New(), uuid.New()
	bookingEvent := func(role enums.ActorRole) payloads.BookingEvent {
		return payloads.BookingEvent{BookingID: booking, BookingNumber: "BK-1-0001", CustomerID: customer, ArtisanID: artisan, ActorRole: role}
	}
	negotiation := func(by enums.ActorRole) payloads.NegotiationEvent {
		return payloads.NegotiationEvent{BookingID: booking, CustomerID: customer, ArtisanID: artisan, ProposedBy: by, Round: 1, Amount: 8000}
	}

	cases := []struct {
		name      string
		eventType enums.OutboxEventType
		data      any
		want      []uuid.UUID
		kind      enums.NotificationType
	}{
		{"created tells artisan", enums.EventBookingCreated, bookingEvent(enums.ActorRoleCustomer), []uuid.UUID{artisan}, enums.NotificationTypeBookingRequest},
		{"accepted tells customer", enums.EventBookingAccepted, bookingEvent(enums.ActorRoleArtisan), []uuid.UUID{customer}, enums.NotificationTypeBookingUpdate},
		{"expired tells both", enums.EventBookingExpired, bookingEvent(enums.ActorRoleSystem), []uuid.UUID{customer, artisan}, enums.NotificationTypeBookingUpdate},
		{"customer cancel tells artisan", enums.EventBookingCancelled, bookingEvent(enums.ActorRoleCustomer), []uuid.UUID{artisan}, enums.NotificationTypeBookingUpdate},
		{"artisan cancel tells customer", enums.EventBookingCancelled, bookingEvent(enums.ActorRoleArtisan), []uuid.UUID{customer}, enums.NotificationTypeBookingUpdate},
		{"dispute tells both", enums.EventBookingDisputed, bookingEvent(enums.ActorRoleCustomer), []uuid.UUID{customer, artisan}, enums.NotificationTypeDispute},
		{"artisan proposal tells customer", enums.EventNegotiationRoundAdded, negotiation(enums.ActorRoleArtisan), []uuid.UUID{customer}, enums.NotificationTypeNegotiation},
		{"counter offer tells artisan", enums.EventNegotiationRoundAdded, negotiation(enums.ActorRoleCustomer), []uuid.UUID{artisan}, enums.NotificationTypeNegotiation},
		{"payment failure tells customer", enums.EventPaymentFailed, payloads.PaymentEvent{BookingID: booking, CustomerID: customer, ArtisanID: artisan}, []uuid.UUID{customer}, enums.NotificationTypePayment},
		{"day-before reminder tells both", enums.EventBookingReminder, bookingEvent(enums.ActorRoleSystem), []uuid.UUID{customer, artisan}, enums.NotificationTypeBookingUpdate},
		{"unpaid reminder tells customer", enums.EventPaymentReminder, bookingEvent(enums.ActorRoleSystem), []uuid.UUID{customer}, enums.NotificationTypePayment},
		{"charge refund tells customer", enums.EventPaymentRefunded, payloads.PaymentEvent{BookingID: booking, CustomerID: customer, ArtisanID: artisan}, []uuid.UUID{customer}, enums.NotificationTypePayment},
		{"release tells artisan", enums.EventEscrowReleased, payloads.EscrowEvent{BookingID: booking, CustomerID: customer, ArtisanID: artisan}, []uuid.UUID{artisan}, enums.NotificationTypePayment},
		{"refund tells customer", enums.EventEscrowRefunded, payloads.EscrowEvent{BookingID: booking, CustomerID: customer, ArtisanID: artisan}, []uuid.UUID{customer}, enums.NotificationTypePayment},
		{"payout tells artisan", enums.EventPayoutProcessed, payloads.PayoutEvent{BookingID: booking, ArtisanID: artisan, Status: enums.TransactionStatusSuccessful}, []uuid.UUID{artisan}, enums.NotificationTypePayout},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notices, err := Route(tc.eventType, mustJSON(t, tc.data))
			require.NoError(t, err)
			require.Equal(t, tc.want, recipients(notices))
			for _, n := range notices {
				require.Equal(t, tc.kind, n.Type)
				require.Equal(t, tc.eventType, n.EventType)
				require.NotNil(t, n.BookingID)
				require.Equal(t, booking, *n.BookingID)
				require.NotEmpty(t, n.Title)
				require.NotEmpty(t, n.Message)
			}
		})
	}
}

func TestRouteFailedPayoutMentionsReason(t *testing.T) {
	notices, err := Route(enums.EventPayoutProcessed, mustJSON(t, payloads.PayoutEvent{
		ArtisanID:     uuid.New(),
		Reference:     "PAYOUT-BK-1",
		Amount:        5000,
		Status:        enums.TransactionStatusFailed,
		FailureReason: "invalid account",
	}))
	require.NoError(t, err)
	require.Len(t, notices, 1)
	require.Equal(t, "Payout failed", notices[0].Title)
	require.Contains(t, notices[0].Message, "invalid account")
}

func TestRouteUnknownEvent(t *testing.T) {
	notices, err := Route(enums.OutboxEventType("order_created"), json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Empty(t, notices)
}
