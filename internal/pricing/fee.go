package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FeeCalculator applies the platform fee. Every place that finalizes a price
// goes through the same calculator so quoted and charged amounts agree.
type FeeCalculator struct {
	percent decimal.Decimal
}

// Amounts is an agreed price with its fee split.
type Amounts struct {
	Agreed int64
	Fee    int64
	Total  int64
}

// NewFeeCalculator parses a percentage such as "5" or "7.5".
func NewFeeCalculator(percent string) (FeeCalculator, error) {
	pct, err := decimal.NewFromString(percent)
	if err != nil {
		return FeeCalculator{}, fmt.Errorf("parse platform fee percent %q: %w", percent, err)
	}
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return FeeCalculator{}, fmt.Errorf("platform fee percent %s out of range", pct)
	}
	return FeeCalculator{percent: pct}, nil
}

// MustFeeCalculator panics on an invalid percentage. Intended for tests and constants.
func MustFeeCalculator(percent string) FeeCalculator {
	calc, err := NewFeeCalculator(percent)
	if err != nil {
		panic(err)
	}
	return calc
}

// PlatformFee returns round(amount * percent / 100).
func (c FeeCalculator) PlatformFee(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(c.percent).Div(hundred).Round(0).IntPart()
}

// TotalAmount returns amount plus the platform fee.
func (c FeeCalculator) TotalAmount(amount int64) int64 {
	return amount + c.PlatformFee(amount)
}

func (c FeeCalculator) Split(agreed int64) Amounts {
	fee := c.PlatformFee(agreed)
	return Amounts{Agreed: agreed, Fee: fee, Total: agreed + fee}
}

func (c FeeCalculator) Percent() string {
	return c.percent.String()
}
