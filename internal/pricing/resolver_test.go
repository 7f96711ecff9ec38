package pricing

import (
	"encoding/json"
	"testing"

	"github.com/Davidayo16/ArtisanPro-server/pkg/enums"
)

func TestResolveBaseByModel(t *testing.T) {
	cases := []struct {
		name     string
		offering Offering
		sel      Selections
		want     int64
	}{
		{
			name:     "simple fixed",
			offering: Offering{Config: SimpleFixed{BasePrice: 5000}},
			want:     5000,
		},
		{
			name:     "unit based without discount",
			offering: Offering{Config: UnitBased{BasePrice: 3000, PricePerAdditionalUnit: 1000, UnitName: "socket"}},
			sel:      Selections{Units: 3},
			want:     5000,
		},
		{
			name: "unit based with bulk discount",
			offering: Offering{Config: UnitBased{
				BasePrice:              3000,
				PricePerAdditionalUnit: 1000,
				UnitName:               "socket",
				BulkDiscount:           &BulkDiscount{Enabled: true, Threshold: 5, DiscountedPrice: 800},
			}},
			sel:  Selections{Units: 5},
			want: 6200,
		},
		{
			name:     "tiered by name",
			offering: Offering{Config: Tiered{Tiers: []Tier{{ID: "a", Name: "basic", Price: 4000}, {ID: "b", Name: "premium", Price: 9000}}}},
			sel:      Selections{TierName: "premium"},
			want:     9000,
		},
		{
			name:     "area below minimum",
			offering: Offering{Config: AreaBased{PricePerUnit: 200, UnitName: "sqm", MinimumCharge: 10000}},
			sel:      Selections{Area: 12.5},
			want:     10000,
		},
		{
			name:     "area above minimum",
			offering: Offering{Config: AreaBased{PricePerUnit: 200, UnitName: "sqm", MinimumCharge: 1000}},
			sel:      Selections{Area: 12.5},
			want:     2500,
		},
		{
			name: "components",
			offering: Offering{Config: ComponentBased{Components: []Component{
				{ID: "tap", Name: "Tap", Kind: ComponentFixed, Price: 2500},
				{ID: "pipe", Name: "Pipe", Kind: ComponentPerUnit, PricePerUnit: 700},
			}}},
			sel:  Selections{Components: []ComponentSelection{{ID: "tap"}, {Name: "Pipe", Quantity: 3}, {ID: "missing"}}},
			want: 4600,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote, err := Resolve(tc.offering, tc.sel)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if !quote.Priced {
				t.Fatal("expected priced quote")
			}
			if quote.FinalPrice != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, quote.FinalPrice)
			}
		})
	}
}

func TestResolveAppliesModifiersMinimumAndDeposit(t *testing.T) {
	offering := Offering{
		Config:        SimpleFixed{BasePrice: 5000},
		Modifiers:     DefaultModifiers(),
		MinimumCharge: 2000,
		Deposit:       DepositRule{Enabled: true, Percentage: 30},
	}
	quote, err := Resolve(offering, Selections{Urgency: enums.UrgencyEmergency, DayType: "weekend"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.BasePrice != 5000 {
		t.Fatalf("unexpected base %d", quote.BasePrice)
	}
	if quote.Multiplier.String() != "2.4" {
		t.Fatalf("unexpected multiplier %s", quote.Multiplier)
	}
	if quote.FinalPrice != 12000 {
		t.Fatalf("expected 12000, got %d", quote.FinalPrice)
	}
	if quote.Deposit == nil || *quote.Deposit != 3600 {
		t.Fatalf("unexpected deposit %v", quote.Deposit)
	}
	if len(quote.Modifiers) != 2 {
		t.Fatalf("expected 2 modifiers, got %v", quote.Modifiers)
	}

	offering.Modifiers.Emergency.Enabled = false
	quote, err = Resolve(offering, Selections{Urgency: enums.UrgencyEmergency})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.FinalPrice != 5000 {
		t.Fatalf("disabled modifier must not apply, got %d", quote.FinalPrice)
	}

	quote, err = Resolve(Offering{Config: Tiered{Tiers: []Tier{{Name: "basic", Price: 100}}}, MinimumCharge: 1500}, Selections{TierName: "none"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.FinalPrice != 1500 {
		t.Fatalf("minimum charge must floor the price, got %d", quote.FinalPrice)
	}
}

func TestResolveUnpricedModels(t *testing.T) {
	quote, err := Resolve(Offering{Config: InspectionRequired{InspectionFee: 3000, Refundable: true}}, Selections{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Priced || quote.InspectionFee == nil || *quote.InspectionFee != 3000 || !quote.Refundable {
		t.Fatalf("unexpected inspection quote %+v", quote)
	}
	if quote.Message != defaultInspectionMessage {
		t.Fatalf("unexpected message %q", quote.Message)
	}

	quote, err = Resolve(Offering{Config: FullyCustom{SuggestedRange: &PriceRange{Min: 1, Max: 2}}}, Selections{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if quote.Priced || quote.Range == nil || quote.Message != defaultCustomMessage {
		t.Fatalf("unexpected custom quote %+v", quote)
	}

	if _, err := Resolve(Offering{}, Selections{}); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestDecodeByTag(t *testing.T) {
	cfg, err := Decode(enums.PricingModelTiered, json.RawMessage(`{"tiers":[{"id":"s","name":"small","price":2000}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	tiered, ok := cfg.(Tiered)
	if !ok || len(tiered.Tiers) != 1 {
		t.Fatalf("unexpected config %#v", cfg)
	}

	if _, err := Decode("hourly", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected unknown tag to be rejected")
	}
	if _, err := Decode(enums.PricingModelSimpleFixed, json.RawMessage(`{"basePrice":0}`)); err == nil {
		t.Fatal("expected zero base price to be rejected")
	}
	if _, err := Decode(enums.PricingModelTiered, json.RawMessage(`{"tiers":[]}`)); err == nil {
		t.Fatal("expected empty tiers to be rejected")
	}
	if _, err := Decode(enums.PricingModelFullyCustom, nil); err != nil {
		t.Fatalf("fully custom needs no config: %v", err)
	}
}

func TestOfferingJSON(t *testing.T) {
	raw := []byte(`{
		"pricingModel": "unit_based",
		"pricingConfig": {"basePrice": 3000, "pricePerAdditionalUnit": 1000, "unitName": "room"},
		"universalFeatures": {"minimumCharge": 500, "depositRequired": {"enabled": true, "percentage": 50}}
	}`)
	var offering Offering
	if err := json.Unmarshal(raw, &offering); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if offering.Config.Model() != enums.PricingModelUnitBased {
		t.Fatalf("unexpected model %s", offering.Config.Model())
	}
	if offering.Modifiers != DefaultModifiers() {
		t.Fatalf("expected default modifiers, got %+v", offering.Modifiers)
	}
	if !offering.Deposit.Enabled || offering.MinimumCharge != 500 {
		t.Fatalf("unexpected universal features %+v", offering)
	}

	encoded, err := json.Marshal(offering)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Offering
	if err := json.Unmarshal(encoded, &again); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	if again.Config.(UnitBased).PricePerAdditionalUnit != 1000 {
		t.Fatalf("config lost on re-encode: %+v", again.Config)
	}

	if err := json.Unmarshal([]byte(`{"pricingModel":"per_hour","pricingConfig":{}}`), &offering); err == nil {
		t.Fatal("expected unknown pricing model error")
	}
}
