package enums

// TransactionType labels append-only money audit entries.
type TransactionType string

const (
	TransactionTypePayout TransactionType = "payout"
	TransactionTypeRefund TransactionType = "refund"
	TransactionTypeFee    TransactionType = "fee"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePayout, TransactionTypeRefund, TransactionTypeFee:
		return true
	}
	return false
}

// TransactionStatus tracks external fulfilment of a transaction entry.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusSuccessful TransactionStatus = "successful"
	TransactionStatusFailed     TransactionStatus = "failed"
)
