package enums

import "fmt"

// ChargeStatus tracks a single payment attempt against the gateway.
type ChargeStatus string

const (
	ChargeStatusPending    ChargeStatus = "pending"
	ChargeStatusSuccessful ChargeStatus = "successful"
	ChargeStatusFailed     ChargeStatus = "failed"
)

var validChargeStatuses = []ChargeStatus{
	ChargeStatusPending,
	ChargeStatusSuccessful,
	ChargeStatusFailed,
}

// IsFinal reports whether the attempt can no longer change.
func (c ChargeStatus) IsFinal() bool {
	return c == ChargeStatusSuccessful || c == ChargeStatusFailed
}

// IsValid reports whether the value is a known ChargeStatus.
func (c ChargeStatus) IsValid() bool {
	for _, candidate := range validChargeStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseChargeStatus converts raw input into a ChargeStatus.
func ParseChargeStatus(value string) (ChargeStatus, error) {
	for _, candidate := range validChargeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid charge status %q", value)
}
