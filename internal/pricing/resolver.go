package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

const defaultCustomMessage = "Price negotiable based on requirements"
const defaultInspectionMessage = "Final price determined after inspection"

// Quote is the resolved price of an offering for a set of selections. Priced
// is false for inspection-required and fully custom offerings, which settle
// their price through inspection or negotiation.
type Quote struct {
	Model             enums.PricingModel
	Priced            bool
	BasePrice         int64
	Multiplier        decimal.Decimal
	Modifiers         []string
	FinalPrice        int64
	Deposit           *int64
	InspectionFee     *int64
	Refundable        bool
	Range             *PriceRange
	Message           string
	MaterialsIncluded bool
}

// Resolve computes the deterministic price for an offering. It has no side effects.
func Resolve(offering Offering, sel Selections) (Quote, error) {
	if offering.Config == nil {
		return Quote{}, fmt.Errorf("offering has no pricing config")
	}
	quote := Quote{
		Model:             offering.Config.Model(),
		Multiplier:        decimal.NewFromInt(1),
		MaterialsIncluded: offering.MaterialsIncluded,
	}

	var base decimal.Decimal
	switch cfg := offering.Config.(type) {
	case SimpleFixed:
		base = decimal.NewFromInt(cfg.BasePrice)
	case UnitBased:
		base = unitBasedPrice(cfg, sel.Units)
	case Tiered:
		base = tieredPrice(cfg, sel.TierID, sel.TierName)
	case AreaBased:
		base = decimal.NewFromInt(cfg.PricePerUnit).Mul(decimal.NewFromFloat(sel.Area))
		if cfg.MinimumCharge > 0 {
			base = decimal.Max(base, decimal.NewFromInt(cfg.MinimumCharge))
		}
	case ComponentBased:
		base = componentPrice(cfg, sel.Components)
	case InspectionRequired:
		fee := cfg.InspectionFee
		quote.InspectionFee = &fee
		quote.Refundable = cfg.Refundable
		quote.Range = cfg.EstimatedRange
		quote.Message = firstNonEmpty(cfg.Message, defaultInspectionMessage)
		return quote, nil
	case FullyCustom:
		quote.Range = cfg.SuggestedRange
		quote.Message = firstNonEmpty(cfg.Message, defaultCustomMessage)
		return quote, nil
	default:
		return Quote{}, fmt.Errorf("unsupported pricing config %T", cfg)
	}

	quote.Priced = true
	quote.Multiplier, quote.Modifiers = multiplierFor(offering.Modifiers, sel)
	quote.BasePrice = base.Round(0).IntPart()

	final := base.Mul(quote.Multiplier).Round(0).IntPart()
	if final < offering.MinimumCharge {
		final = offering.MinimumCharge
	}
	quote.FinalPrice = final

	if offering.Deposit.Enabled {
		deposit := decimal.NewFromInt(final).
			Mul(decimal.NewFromFloat(offering.Deposit.Percentage)).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart()
		quote.Deposit = &deposit
	}
	return quote, nil
}

func unitBasedPrice(cfg UnitBased, units int) decimal.Decimal {
	if units < 1 {
		units = 1
	}
	base := decimal.NewFromInt(cfg.BasePrice)
	if units == 1 {
		return base
	}
	additional := decimal.NewFromInt(int64(units - 1))
	perUnit := cfg.PricePerAdditionalUnit
	if d := cfg.BulkDiscount; d != nil && d.Enabled && units >= d.Threshold {
		perUnit = d.DiscountedPrice
	}
	return base.Add(decimal.NewFromInt(perUnit).Mul(additional))
}

func tieredPrice(cfg Tiered, id, name string) decimal.Decimal {
	for _, tier := range cfg.Tiers {
		if (id != "" && tier.ID == id) || (name != "" && tier.Name == name) {
			return decimal.NewFromInt(tier.Price)
		}
	}
	return decimal.Zero
}

func componentPrice(cfg ComponentBased, selected []ComponentSelection) decimal.Decimal {
	total := decimal.Zero
	for _, sel := range selected {
		for _, comp := range cfg.Components {
			if (sel.ID == "" || comp.ID != sel.ID) && (sel.Name == "" || comp.Name != sel.Name) {
				continue
			}
			switch comp.Kind {
			case ComponentFixed:
				total = total.Add(decimal.NewFromInt(comp.Price))
			case ComponentPerUnit:
				qty := sel.Quantity
				if qty <= 0 {
					qty = 1
				}
				total = total.Add(decimal.NewFromInt(comp.PricePerUnit).Mul(decimal.NewFromInt(int64(qty))))
			}
			break
		}
	}
	return total
}

func multiplierFor(m Modifiers, sel Selections) (decimal.Decimal, []string) {
	multiplier := decimal.NewFromInt(1)
	var applied []string
	apply := func(name string, mod Modifier, wanted bool) {
		if wanted && mod.Enabled {
			multiplier = multiplier.Mul(decimal.NewFromFloat(mod.Multiplier))
			applied = append(applied, name)
		}
	}
	apply("urgent", m.Urgent, sel.Urgency == enums.UrgencyUrgent)
	apply("emergency", m.Emergency, sel.Urgency == enums.UrgencyEmergency)
	apply("after_hours", m.AfterHours, strings.EqualFold(sel.TimeOfDay, TimeOfDayAfterHours))
	apply("weekend", m.Weekend, strings.EqualFold(sel.DayType, DayTypeWeekend))
	return multiplier, applied
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
