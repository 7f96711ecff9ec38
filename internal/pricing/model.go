package pricing

import (
	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

// Config is the pricing configuration of one service offering. Exactly one
// variant per pricing model implements it.
type Config interface {
	Model() enums.PricingModel
	sealed()
}

type SimpleFixed struct {
	BasePrice int64 `json:"basePrice" validate:"gt=0"`
}

type BulkDiscount struct {
	Enabled         bool  `json:"enabled"`
	Threshold       int   `json:"threshold" validate:"required_if=Enabled true,gte=0"`
	DiscountedPrice int64 `json:"discountedPrice" validate:"gte=0"`
}

type UnitBased struct {
	BasePrice              int64         `json:"basePrice" validate:"gt=0"`
	PricePerAdditionalUnit int64         `json:"pricePerAdditionalUnit" validate:"gt=0"`
	UnitName               string        `json:"unitName" validate:"required"`
	BulkDiscount           *BulkDiscount `json:"bulkDiscount,omitempty"`
}

type Tier struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"gt=0"`
}

type Tiered struct {
	Tiers []Tier `json:"tiers" validate:"min=1,dive"`
}

type AreaBased struct {
	PricePerUnit  int64  `json:"pricePerUnit" validate:"gt=0"`
	UnitName      string `json:"unitName" validate:"required"`
	MinimumCharge int64  `json:"minimumCharge" validate:"gte=0"`
}

// ComponentKind selects how a component is priced.
type ComponentKind string

const (
	ComponentFixed   ComponentKind = "fixed"
	ComponentPerUnit ComponentKind = "per_unit"
)

type Component struct {
	ID           string        `json:"id"`
	Name         string        `json:"name" validate:"required"`
	Kind         ComponentKind `json:"type" validate:"oneof=fixed per_unit"`
	Price        int64         `json:"price" validate:"gte=0"`
	PricePerUnit int64         `json:"pricePerUnit" validate:"gte=0"`
}

type ComponentBased struct {
	Components []Component `json:"components" validate:"min=1,dive"`
}

type PriceRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type InspectionRequired struct {
	InspectionFee  int64       `json:"inspectionFee" validate:"gte=0"`
	Refundable     bool        `json:"inspectionFeeRefundable"`
	EstimatedRange *PriceRange `json:"estimatedRange,omitempty"`
	Message        string      `json:"message,omitempty"`
}

type FullyCustom struct {
	SuggestedRange *PriceRange `json:"suggestedRange,omitempty"`
	Message        string      `json:"message,omitempty"`
}

func (SimpleFixed) Model() enums.PricingModel { return enums.PricingModelSimpleFixed }
func (UnitBased) Model() enums.PricingModel { return enums.PricingModelUnitBased }
func (Tiered) Model() enums.PricingModel { return enums.PricingModelTiered }
func (AreaBased) Model() enums.PricingModel { return enums.PricingModelAreaBased }
func (ComponentBased) Model() enums.PricingModel { return enums.PricingModelComponentBased }
func (InspectionRequired) Model() enums.PricingModel { return enums.PricingModelInspectionRequired }
func (FullyCustom) Model() enums.PricingModel { return enums.PricingModelFullyCustom }

func (SimpleFixed) sealed() {}
func (UnitBased) sealed() {}
func (Tiered) sealed() {}
func (AreaBased) sealed() {}
func (ComponentBased) sealed() {}
func (InspectionRequired) sealed() {}
func (FullyCustom) sealed() {}

// Modifier is a multiplier applied on top of the base price when enabled.
type Modifier struct {
	Enabled    bool    `json:"enabled"`
	Multiplier float64 `json:"multiplier" validate:"gte=1"`
}

type Modifiers struct {
	Urgent     Modifier `json:"urgent"`
	Emergency  Modifier `json:"emergency"`
	AfterHours Modifier `json:"afterHours"`
	Weekend    Modifier `json:"weekend"`
}

// DefaultModifiers mirrors the catalogue defaults applied to new offerings.
func DefaultModifiers() Modifiers {
	return Modifiers{
		Urgent:     Modifier{Enabled: true, Multiplier: 1.5},
		Emergency:  Modifier{Enabled: true, Multiplier: 2.0},
		AfterHours: Modifier{Enabled: true, Multiplier: 1.3},
		Weekend:    Modifier{Enabled: true, Multiplier: 1.2},
	}
}

type DepositRule struct {
	Enabled    bool    `json:"enabled"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

// Offering is an artisan's priced service.
type Offering struct {
	Config            Config
	Modifiers         Modifiers
	MinimumCharge     int64
	Deposit           DepositRule
	MaterialsIncluded bool
}

type ComponentSelection struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

const (
	TimeOfDayAfterHours = "after_hours"
	DayTypeWeekend      = "weekend"
)

// Selections are the customer's choices when requesting a booking.
type Selections struct {
	Units      int                  `json:"units,omitempty"`
	TierID     string               `json:"tierId,omitempty"`
	TierName   string               `json:"tierName,omitempty"`
	Area       float64              `json:"area,omitempty"`
	Components []ComponentSelection `json:"components,omitempty"`
	Urgency    enums.Urgency        `json:"urgency,omitempty"`
	TimeOfDay  string               `json:"timeOfDay,omitempty"`
	DayType    string               `json:"dayType,omitempty"`
}
