package pricing

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

var validate = validator.New()

// Decode parses a stored pricing config for the given model tag. Unknown tags
// and configs that do not fit their variant are rejected.
func Decode(model enums.PricingModel, raw json.RawMessage) (Config, error) {
	var cfg Config
	switch model {
	case enums.PricingModelSimpleFixed:
		cfg = &SimpleFixed{}
	case enums.PricingModelUnitBased:
		cfg = &UnitBased{}
	case enums.PricingModelTiered:
		cfg = &Tiered{}
	case enums.PricingModelAreaBased:
		cfg = &AreaBased{}
	case enums.PricingModelComponentBased:
		cfg = &ComponentBased{}
	case enums.PricingModelInspectionRequired:
		cfg = &InspectionRequired{}
	case enums.PricingModelFullyCustom:
		cfg = &FullyCustom{}
	default:
		return nil, fmt.Errorf("unknown pricing model %q", model)
	}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", model, err)
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", model, err)
	}
	return deref(cfg), nil
}

func deref(cfg Config) Config {
	switch v := cfg.(type) {
	case *SimpleFixed:
		return *v
	case *UnitBased:
		return *v
	case *Tiered:
		return *v
	case *AreaBased:
		return *v
	case *ComponentBased:
		return *v
	case *InspectionRequired:
		return *v
	case *FullyCustom:
		return *v
	}
	return cfg
}

type universalFeatures struct {
	MaterialsIncluded bool        `json:"materialsIncluded"`
	MinimumCharge     int64       `json:"minimumCharge" validate:"gte=0"`
	DepositRequired   DepositRule `json:"depositRequired"`
}

type offeringJSON struct {
	PricingModel      enums.PricingModel `json:"pricingModel"`
	PricingConfig     json.RawMessage    `json:"pricingConfig"`
	Modifiers         *Modifiers         `json:"modifiers,omitempty"`
	UniversalFeatures universalFeatures  `json:"universalFeatures"`
}

// UnmarshalJSON decodes the catalogue shape, dispatching pricingConfig on the
// pricingModel tag.
func (o *Offering) UnmarshalJSON(data []byte) error {
	var wire offeringJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	cfg, err := Decode(wire.PricingModel, wire.PricingConfig)
	if err != nil {
		return err
	}
	modifiers := DefaultModifiers()
	if wire.Modifiers != nil {
		modifiers = *wire.Modifiers
	}
	if err := validate.Struct(modifiers); err != nil {
		return fmt.Errorf("invalid modifiers: %w", err)
	}
	if err := validate.Struct(wire.UniversalFeatures); err != nil {
		return fmt.Errorf("invalid universal features: %w", err)
	}
	*o = Offering{
		Config:            cfg,
		Modifiers:         modifiers,
		MinimumCharge:     wire.UniversalFeatures.MinimumCharge,
		Deposit:           wire.UniversalFeatures.DepositRequired,
		MaterialsIncluded: wire.UniversalFeatures.MaterialsIncluded,
	}
	return nil
}

func (o Offering) MarshalJSON() ([]byte, error) {
	if o.Config == nil {
		return nil, fmt.Errorf("offering has no pricing config")
	}
	cfg, err := json.Marshal(o.Config)
	if err != nil {
		return nil, err
	}
	modifiers := o.Modifiers
	return json.Marshal(offeringJSON{
		PricingModel:  o.Config.Model(),
		PricingConfig: cfg,
		Modifiers:     &modifiers,
		UniversalFeatures: universalFeatures{
			MaterialsIncluded: o.MaterialsIncluded,
			MinimumCharge:     o.MinimumCharge,
			DepositRequired:   o.Deposit,
		},
	})
}
