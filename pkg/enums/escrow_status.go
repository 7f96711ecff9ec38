package enums

import "fmt"

// EscrowStatus maps to the escrow_status enum in Postgres.
type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
	EscrowStatusDisputed EscrowStatus = "disputed"
)

var validEscrowStatuses = []EscrowStatus{
	EscrowStatusHeld,
	EscrowStatusReleased,
	EscrowStatusRefunded,
	EscrowStatusDisputed,
}

// IsTerminal reports whether the escrow has been settled one way or the other.
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

func (s EscrowStatus) IsValid() bool {
	for _, candidate := range validEscrowStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEscrowStatus converts raw input into an EscrowStatus.
func ParseEscrowStatus(value string) (EscrowStatus, error) {
	for _, candidate := range validEscrowStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escrow status %q", value)
}

// ReleaseType records what triggered an escrow release.
type ReleaseType string

const (
	ReleaseTypeManual ReleaseType = "manual"
	ReleaseTypeAuto   ReleaseType = "auto"
	ReleaseTypeAdmin  ReleaseType = "admin"
)

func (r ReleaseType) IsValid() bool {
	switch r {
	case ReleaseTypeManual, ReleaseTypeAuto, ReleaseTypeAdmin:
		return true
	}
	return false
}
