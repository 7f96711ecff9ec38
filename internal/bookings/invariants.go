package bookings

import (
	"fmt"

	"github.com/Davidayo16/ArtisanPro-server/pkg/db/models"
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
	pkgerrors "github.com/Davidayo16/ArtisanPro-server/pkg/errors"
)

// allowedPairs is the combined job/money state table. Any other pairing is a desync.
var allowedPairs = map[enums.BookingStatus][]enums.PaymentStatus{
	enums.BookingStatusPending:         {enums.PaymentStatusUnpaid},
	enums.BookingStatusNegotiating:     {enums.PaymentStatusUnpaid},
	enums.BookingStatusDeclined:        {enums.PaymentStatusUnpaid},
	enums.BookingStatusAccepted:        {enums.PaymentStatusUnpaid},
	enums.BookingStatusConfirmed:       {enums.PaymentStatusPaid},
	enums.BookingStatusInProgress:      {enums.PaymentStatusPaid},
	enums.BookingStatusCompleted:       {enums.PaymentStatusPaid},
	enums.BookingStatusDisputed:        {enums.PaymentStatusPaid},
	enums.BookingStatusPaymentReleased: {enums.PaymentStatusReleased},
	enums.BookingStatusCancelled:       {enums.PaymentStatusUnpaid, enums.PaymentStatusRefunded},
}

// escrowFor maps a booking payment status to the escrow statuses it may sit beside.
var escrowFor = map[enums.PaymentStatus][]enums.EscrowStatus{
	enums.PaymentStatusPaid:     {enums.EscrowStatusHeld, enums.EscrowStatusDisputed},
	enums.PaymentStatusReleased: {enums.EscrowStatusReleased},
	enums.PaymentStatusRefunded: {enums.EscrowStatusRefunded},
}

// CheckInvariants validates a booking (and its escrow, when known) against the
// combined state table and the price and escrow-reference rules.
func CheckInvariants(b *models.Booking, e *models.Escrow) error {
	if b == nil {
		return consistency("booking missing", nil)
	}
	payments, ok := allowedPairs[b.Status]
	if !ok {
		return consistency("unknown booking status", b)
	}
	if !containsPayment(payments, b.PaymentStatus) {
		return consistency(fmt.Sprintf("status %s cannot carry payment status %s", b.Status, b.PaymentStatus), b)
	}

	switch {
	case b.Status.HasAgreement() || b.Status == enums.BookingStatusDisputed:
		if b.AgreedPrice == nil {
			return consistency("agreed price required", b)
		}
		if b.PlatformFee == nil || b.TotalAmount == nil {
			return consistency("fee breakdown required", b)
		}
	case b.Status != enums.BookingStatusCancelled:
		if b.AgreedPrice != nil {
			return consistency("agreed price set before acceptance", b)
		}
	}

	switch b.Status {
	case enums.BookingStatusCompleted, enums.BookingStatusPaymentReleased, enums.BookingStatusDisputed:
		if b.FinalPrice == nil {
			return consistency("final price required", b)
		}
	case enums.BookingStatusCancelled:
	default:
		if b.FinalPrice != nil {
			return consistency("final price set before completion", b)
		}
	}

	hasMoney := b.PaymentStatus != enums.PaymentStatusUnpaid
	if hasMoney != (b.EscrowID != nil) {
		return consistency("escrow reference does not match payment status", b)
	}
	if e == nil {
		return nil
	}
	if b.EscrowID == nil || *b.EscrowID != e.ID || e.BookingID != b.ID {
		return consistency("escrow belongs to another booking", b)
	}
	for _, status := range escrowFor[b.PaymentStatus] {
		if status == e.Status {
			return nil
		}
	}
	return consistency(fmt.Sprintf("escrow %s does not match payment status %s", e.Status, b.PaymentStatus), b)
}

func containsPayment(list []enums.PaymentStatus, v enums.PaymentStatus) bool {
	for _, candidate := range list {
		if candidate == v {
			return true
		}
	}
	return false
}

func consistency(msg string, b *models.Booking) error {
	err := pkgerrors.New(pkgerrors.CodeConsistency, msg)
	if b != nil {
		err = err.WithDetails(map[string]any{
			"bookingId":     b.ID,
			"status":        b.Status,
			"paymentStatus": b.PaymentStatus,
		})
	}
	return err
}
