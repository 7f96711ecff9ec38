package enums

import "fmt"

// NegotiationStatus maps to the negotiation_status enum in Postgres.
type NegotiationStatus string

const (
	NegotiationStatusActive   NegotiationStatus = "active"
	NegotiationStatusAgreed   NegotiationStatus = "agreed"
	NegotiationStatusRejected NegotiationStatus = "rejected"
	NegotiationStatusExpired  NegotiationStatus = "expired"
)

var validNegotiationStatuses = []NegotiationStatus{
	NegotiationStatusActive,
	NegotiationStatusAgreed,
	NegotiationStatusRejected,
	NegotiationStatusExpired,
}

func (s NegotiationStatus) IsValid() bool {
	for _, candidate := range validNegotiationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseNegotiationStatus converts raw input into a NegotiationStatus.
func ParseNegotiationStatus(value string) (NegotiationStatus, error) {
	for _, candidate := range validNegotiationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid negotiation status %q", value)
}

// RoundResponse is the other party's answer to a negotiation round.
type RoundResponse string

const (
	RoundResponsePending   RoundResponse = "pending"
	RoundResponseAccepted  RoundResponse = "accepted"
	RoundResponseRejected  RoundResponse = "rejected"
	RoundResponseCountered RoundResponse = "countered"
)
