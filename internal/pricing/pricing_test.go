package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/apperr"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decp(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestPositionPrice(t *testing.T) {
	sections := PositionalConfig{Sections: &Sections{
		Top:    &Section{Amount: dec("100"), Slots: 10},
		Middle: &Section{Amount: dec("50"), Slots: 20},
		Bottom: &Section{Amount: dec("25"), Slots: 30},
	}}

	tests := []struct {
		name     string
		cfg      Config
		position int
		total    int
		want     string
	}{
		{"multiplier", PositionalConfig{PriceMultiplier: decp("5")}, 40, 0, "200"},
		{"additive ascending", PositionalConfig{BasePrice: decp("10"), PricePerPosition: decp("2")}, 40, 0, "88"},
		{"additive explicit ascending", PositionalConfig{BasePrice: decp("10"), PricePerPosition: decp("2"), PricingOrder: OrderAscending}, 1, 100, "10"},
		{"additive descending first", PositionalConfig{BasePrice: decp("10"), PricePerPosition: decp("2"), PricingOrder: OrderDescending}, 1, 100, "208"},
		{"additive descending last", PositionalConfig{BasePrice: decp("10"), PricePerPosition: decp("2"), PricingOrder: OrderDescending}, 100, 100, "10"},
		{"section top first", sections, 1, 60, "100"},
		{"section top last", sections, 10, 60, "100"},
		{"section middle first", sections, 11, 60, "50"},
		{"section middle last", sections, 30, 60, "50"},
		{"section bottom", sections, 31, 60, "25"},
		{"section bottom last", sections, 60, 60, "25"},
		{"fixed", FixedConfig{FixedPrice: dec("50")}, 7, 20, "50"},
		{"fractional multiplier", PositionalConfig{PriceMultiplier: decp("2.5")}, 3, 0, "7.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PositionPrice(tt.cfg, tt.position, tt.total)
			if err != nil {
				t.Fatalf("PositionPrice: %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("PositionPrice(%d, %d) = %s, want %s", tt.position, tt.total, got, tt.want)
			}
		})
	}
}

func TestPositionPriceErrors(t *testing.T) {
	sections := PositionalConfig{Sections: &Sections{Top: &Section{Amount: dec("100"), Slots: 2}}}

	tests := []struct {
		name     string
		cfg      Config
		position int
		total    int
	}{
		{"descending without total", PositionalConfig{BasePrice: decp("10"), PricePerPosition: decp("2"), PricingOrder: OrderDescending}, 1, 0},
		{"descending beyond total", PositionalConfig{BasePrice: decp("10"), PricePerPosition: decp("2"), PricingOrder: OrderDescending}, 5, 4},
		{"beyond sections", sections, 3, 3},
		{"zero position", FixedConfig{FixedPrice: dec("5")}, 0, 1},
		{"pay what you want", PayWhatYouWantConfig{MinimumAmount: dec("5")}, 1, 1},
		{"empty positional", PositionalConfig{}, 1, 1},
		{"zero fixed", FixedConfig{}, 1, 1},
		{"nil config", nil, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := PositionPrice(tt.cfg, tt.position, tt.total)
			if !apperr.Is(err, apperr.KindInvalidPricingConfig) {
				t.Fatalf("expected InvalidPricingConfig, got price=%s err=%v", price, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		valid bool
	}{
		{"fixed ok", FixedConfig{FixedPrice: dec("50")}, true},
		{"fixed zero", FixedConfig{FixedPrice: dec("0")}, false},
		{"fixed negative", FixedConfig{FixedPrice: dec("-1")}, false},
		{"multiplier ok", PositionalConfig{PriceMultiplier: decp("5")}, true},
		{"multiplier zero", PositionalConfig{PriceMultiplier: decp("0")}, false},
		{"additive ok", PositionalConfig{BasePrice: decp("0"), PricePerPosition: decp("0")}, true},
		{"additive missing step", PositionalConfig{BasePrice: decp("10")}, false},
		{"additive negative base", PositionalConfig{BasePrice: decp("-1"), PricePerPosition: decp("1")}, false},
		{"additive negative step", PositionalConfig{BasePrice: decp("1"), PricePerPosition: decp("-1")}, false},
		{"additive bad order", PositionalConfig{BasePrice: decp("1"), PricePerPosition: decp("1"), PricingOrder: "sideways"}, false},
		{"sections ok", PositionalConfig{Sections: &Sections{Top: &Section{Amount: dec("10"), Slots: 3}}}, true},
		{"sections zero slots", PositionalConfig{Sections: &Sections{Top: &Section{Amount: dec("10"), Slots: 0}}}, false},
		{"sections zero amount", PositionalConfig{Sections: &Sections{Middle: &Section{Amount: dec("0"), Slots: 2}}}, false},
		{"sections empty", PositionalConfig{Sections: &Sections{}}, false},
		{"no family", PositionalConfig{}, false},
		{"two families", PositionalConfig{PriceMultiplier: decp("5"), BasePrice: decp("1"), PricePerPosition: decp("1")}, false},
		{"pwyw ok", PayWhatYouWantConfig{MinimumAmount: dec("5"), SizeTiers: DefaultSizeTiers}, true},
		{"pwyw zero minimum", PayWhatYouWantConfig{MinimumAmount: dec("0")}, false},
		{"pwyw suggested below minimum", PayWhatYouWantConfig{MinimumAmount: dec("5"), SuggestedAmounts: []decimal.Decimal{dec("1")}}, false},
		{"pwyw negative tier", PayWhatYouWantConfig{MinimumAmount: dec("5"), SizeTiers: []SizeTier{{Size: "s", MinAmount: dec("-1"), FontSize: 10, LogoWidth: 10}}}, false},
		{"pwyw tier without font", PayWhatYouWantConfig{MinimumAmount: dec("5"), SizeTiers: []SizeTier{{Size: "s", MinAmount: dec("1"), LogoWidth: 10}}}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tt.valid && !apperr.Is(err, apperr.KindInvalidPricingConfig) {
				t.Fatalf("expected InvalidPricingConfig, got %v", err)
			}
		})
	}
}

func TestValidateForRejectsMismatchedType(t *testing.T) {
	err := ValidateFor(TypePositional, FixedConfig{FixedPrice: dec("10")})
	if !apperr.Is(err, apperr.KindInvalidPricingConfig) {
		t.Fatalf("expected InvalidPricingConfig, got %v", err)
	}
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(TypePositional, []byte(`{"sections":{"top":{"amount":100,"slots":10},"bottom":{"amount":"25","slots":5}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	pc, ok := cfg.(PositionalConfig)
	if !ok {
		t.Fatalf("decoded %T, want PositionalConfig", cfg)
	}
	if pc.Sections.TotalSlots() != 15 {
		t.Errorf("TotalSlots = %d, want 15", pc.Sections.TotalSlots())
	}
	price, err := SectionPrice(cfg, SectionBottom)
	if err != nil || !price.Equal(dec("25")) {
		t.Errorf("SectionPrice(bottom) = %s, %v", price, err)
	}
	if _, err := SectionPrice(cfg, SectionMiddle); err == nil {
		t.Error("undefined section should fail")
	}

	if _, err := DecodeConfig(TypeFixed, []byte(`{"fixedPrice":`)); !apperr.Is(err, apperr.KindInvalidPricingConfig) {
		t.Errorf("malformed json should be InvalidPricingConfig, got %v", err)
	}
	if _, err := DecodeConfig("raffle", []byte(`{}`)); !apperr.Is(err, apperr.KindInvalidPricingConfig) {
		t.Errorf("unknown type should be InvalidPricingConfig, got %v", err)
	}
}

func TestEncodeDecodeKeepsStrategy(t *testing.T) {
	in := PositionalConfig{BasePrice: decp("10"), PricePerPosition: decp("2"), PricingOrder: OrderDescending}
	raw, err := EncodeConfig(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeConfig(TypePositional, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	price, err := PositionPrice(out, 1, 100)
	if err != nil || !price.Equal(dec("208")) {
		t.Fatalf("price after round trip = %s, %v", price, err)
	}
}

func TestCheckDonation(t *testing.T) {
	c := PayWhatYouWantConfig{MinimumAmount: dec("5")}
	if err := CheckDonation(c, dec("5")); err != nil {
		t.Errorf("minimum amount should be accepted: %v", err)
	}
	if err := CheckDonation(c, dec("4.99")); !apperr.Is(err, apperr.KindAmountBelowMinimum) {
		t.Errorf("expected AmountBelowMinimum, got %v", err)
	}
}
