package enums

import "testing"

func TestBookingStatusGroups(t *testing.T) {
	cases := []struct {
		status      BookingStatus
		agreement   bool
		cancellable bool
		reviewable  bool
	}{
		{BookingStatusPending, false, true, false},
		{BookingStatusNegotiating, false, true, false},
		{BookingStatusDeclined, false, false, false},
		{BookingStatusAccepted, true, true, false},
		{BookingStatusConfirmed, true, true, false},
		{BookingStatusInProgress, true, true, false},
		{BookingStatusCompleted, true, false, true},
		{BookingStatusPaymentReleased, true, false, true},
		{BookingStatusCancelled, false, false, false},
		{BookingStatusDisputed, false, false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			if got := tc.status.HasAgreement(); got != tc.agreement {
				t.Fatalf("HasAgreement = %v, want %v", got, tc.agreement)
			}
			if got := tc.status.IsCancellable(); got != tc.cancellable {
				t.Fatalf("IsCancellable = %v, want %v", got, tc.cancellable)
			}
			if got := tc.status.IsReviewable(); got != tc.reviewable {
				t.Fatalf("IsReviewable = %v, want %v", got, tc.reviewable)
			}
		})
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	if _, err := ParseBookingStatus("archived"); err == nil {
		t.Fatal("expected unknown booking status to fail")
	}
	if _, err := ParsePricingModel("hourly"); err == nil {
		t.Fatal("expected unknown pricing model to fail")
	}
	if _, err := ParseOutboxEventType("order_created"); err == nil {
		t.Fatal("expected unknown event type to fail")
	}
	got, err := ParseEscrowStatus("held")
	if err != nil || got != EscrowStatusHeld {
		t.Fatalf("expected held, got %q err=%v", got, err)
	}
}

func TestEscrowAndChargeFinality(t *testing.T) {
	if EscrowStatusHeld.IsTerminal() || EscrowStatusDisputed.IsTerminal() {
		t.Fatal("held and disputed escrows are not terminal")
	}
	if !EscrowStatusReleased.IsTerminal() || !EscrowStatusRefunded.IsTerminal() {
		t.Fatal("released and refunded escrows are terminal")
	}
	if ChargeStatusPending.IsFinal() {
		t.Fatal("pending charge is not final")
	}
	if !ChargeStatusSuccessful.IsFinal() || !ChargeStatusFailed.IsFinal() {
		t.Fatal("successful and failed charges are final")
	}
}
