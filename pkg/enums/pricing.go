package enums

import "fmt"

// PricingModel tags the shape of a service offering's pricing config.
type PricingModel string

const (
	PricingModelSimpleFixed        PricingModel = "simple_fixed"
	PricingModelUnitBased          PricingModel = "unit_based"
	PricingModelTiered             PricingModel = "tiered"
	PricingModelAreaBased          PricingModel = "area_based"
	PricingModelComponentBased     PricingModel = "component_based"
	PricingModelInspectionRequired PricingModel = "inspection_required"
	PricingModelFullyCustom        PricingModel = "fully_custom"
)

var validPricingModels = []PricingModel{
	PricingModelSimpleFixed,
	PricingModelUnitBased,
	PricingModelTiered,
	PricingModelAreaBased,
	PricingModelComponentBased,
	PricingModelInspectionRequired,
	PricingModelFullyCustom,
}

func (p PricingModel) IsValid() bool {
	for _, candidate := range validPricingModels {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePricingModel converts raw input into a PricingModel.
func ParsePricingModel(value string) (PricingModel, error) {
	for _, candidate := range validPricingModels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing model %q", value)
}

// Urgency is the customer's requested response speed.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyNormal, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}
