package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/apperr"
)

// Validate checks the structure of a pricing config. It must pass before a
// campaign accepts sponsors.
func Validate(cfg Config) error {
	switch c := cfg.(type) {
	case FixedConfig:
		if !c.FixedPrice.IsPositive() {
			return apperr.InvalidPricing("fixedPrice must be greater than 0")
		}
		return nil
	case PositionalConfig:
		return validatePositional(c)
	case PayWhatYouWantConfig:
		return validatePayWhatYouWant(c)
	case nil:
		return apperr.InvalidPricing("pricing config is required")
	default:
		return apperr.InvalidPricing("unsupported pricing config %T", cfg)
	}
}

// ValidateFor additionally checks that cfg belongs to campaign type t.
func ValidateFor(t CampaignType, cfg Config) error {
	if !t.Valid() {
		return apperr.InvalidPricing("unknown campaign type %q", t)
	}
	if cfg != nil && cfg.Type() != t {
		return apperr.InvalidPricing("pricing config for %s does not match campaign type %s", cfg.Type(), t)
	}
	return Validate(cfg)
}

func validatePositional(c PositionalConfig) error {
	families := 0
	if c.hasSections() {
		families++
	}
	if c.hasMultiplier() {
		families++
	}
	if c.hasAdditive() {
		families++
	}
	switch {
	case families == 0:
		return apperr.InvalidPricing("positional pricing requires sections, priceMultiplier, or basePrice with pricePerPosition")
	case families > 1:
		return apperr.InvalidPricing("positional pricing must use exactly one of sections, priceMultiplier, or basePrice/pricePerPosition")
	}

	switch {
	case c.hasSections():
		for _, s := range c.Sections.ordered() {
			if !s.Amount.IsPositive() {
				return apperr.InvalidPricing("section %s amount must be greater than 0", s.name)
			}
			if s.Slots <= 0 {
				return apperr.InvalidPricing("section %s slots must be greater than 0", s.name)
			}
		}
	case c.hasMultiplier():
		if !c.PriceMultiplier.IsPositive() {
			return apperr.InvalidPricing("priceMultiplier must be greater than 0")
		}
	default:
		if c.BasePrice == nil || c.PricePerPosition == nil {
			return apperr.InvalidPricing("additive pricing requires both basePrice and pricePerPosition")
		}
		if c.BasePrice.IsNegative() {
			return apperr.InvalidPricing("basePrice must be 0 or greater")
		}
		if c.PricePerPosition.IsNegative() {
			return apperr.InvalidPricing("pricePerPosition must be 0 or greater")
		}
		switch c.PricingOrder {
		case "", OrderAscending, OrderDescending:
		default:
			return apperr.InvalidPricing("pricingOrder must be ascending or descending")
		}
	}
	return nil
}

func validatePayWhatYouWant(c PayWhatYouWantConfig) error {
	if !c.MinimumAmount.IsPositive() {
		return apperr.InvalidPricing("minimumAmount must be greater than 0")
	}
	for _, a := range c.SuggestedAmounts {
		if a.LessThan(c.MinimumAmount) {
			return apperr.InvalidPricing("suggested amount %s is below minimumAmount", a)
		}
	}
	for i, t := range c.SizeTiers {
		if t.MinAmount.IsNegative() {
			return apperr.InvalidPricing("size tier %d minAmount must be 0 or greater", i)
		}
		if t.MaxAmount != nil && t.MaxAmount.LessThan(t.MinAmount) {
			return apperr.InvalidPricing("size tier %d maxAmount is below minAmount", i)
		}
		if t.FontSize <= 0 || t.LogoWidth <= 0 {
			return apperr.InvalidPricing("size tier %d needs positive fontSize and logoWidth", i)
		}
	}
	return nil
}

// PositionPrice returns the price of position (1-indexed) out of total
// positions. Positional configs dispatch in priority order: sections,
// multiplier, additive.
func PositionPrice(cfg Config, position, total int) (decimal.Decimal, error) {
	if position < 1 {
		return decimal.Zero, apperr.InvalidPricing("position must be 1 or greater, got %d", position)
	}

	switch c := cfg.(type) {
	case FixedConfig:
		if !c.FixedPrice.IsPositive() {
			return decimal.Zero, apperr.InvalidPricing("fixedPrice must be greater than 0")
		}
		return c.FixedPrice, nil
	case PositionalConfig:
		return positionalPrice(c, position, total)
	case PayWhatYouWantConfig:
		return decimal.Zero, apperr.InvalidPricing("pay-what-you-want campaigns have no position prices")
	default:
		return decimal.Zero, apperr.InvalidPricing("unsupported pricing config %T", cfg)
	}
}

func positionalPrice(c PositionalConfig, position, total int) (decimal.Decimal, error) {
	pos := decimal.NewFromInt(int64(position))

	switch {
	case c.hasSections():
		_, s, err := SectionForPosition(c.Sections, position)
		if err != nil {
			return decimal.Zero, err
		}
		return s.Amount, nil
	case c.hasMultiplier():
		return pos.Mul(*c.PriceMultiplier), nil
	case c.BasePrice != nil && c.PricePerPosition != nil:
		if c.PricingOrder == OrderDescending {
			if total <= 0 {
				return decimal.Zero, apperr.InvalidPricing("descending pricing requires the total number of positions")
			}
			if position > total {
				return decimal.Zero, apperr.InvalidPricing("position %d exceeds total %d", position, total)
			}
			steps := decimal.NewFromInt(int64(total - position))
			return c.BasePrice.Add(steps.Mul(*c.PricePerPosition)), nil
		}
		steps := decimal.NewFromInt(int64(position - 1))
		return c.BasePrice.Add(steps.Mul(*c.PricePerPosition)), nil
	default:
		return decimal.Zero, apperr.InvalidPricing("positional pricing config is incomplete")
	}
}

// SectionForPosition maps a 1-indexed position onto the cumulative slot
// ranges of the defined sections, top first.
func SectionForPosition(s *Sections, position int) (string, *Section, error) {
	if position < 1 {
		return "", nil, apperr.InvalidPricing("position must be 1 or greater, got %d", position)
	}
	upper := 0
	for _, ns := range s.ordered() {
		upper += ns.Slots
		if position <= upper {
			return ns.name, ns.Section, nil
		}
	}
	return "", nil, apperr.InvalidPricing("position %d is outside the %d section slots", position, upper)
}

// SectionPrice returns the flat amount of a named section.
func SectionPrice(cfg Config, name string) (decimal.Decimal, error) {
	c, ok := cfg.(PositionalConfig)
	if !ok || !c.hasSections() {
		return decimal.Zero, apperr.InvalidPricing("campaign is not priced by sections")
	}
	s, ok := c.Sections.Lookup(name)
	if !ok {
		return decimal.Zero, apperr.InvalidPricing("section %q is not defined", name)
	}
	return s.Amount, nil
}

// CheckDonation validates a sponsor-chosen amount for pay-what-you-want.
func CheckDonation(c PayWhatYouWantConfig, amount decimal.Decimal) error {
	if amount.LessThan(c.MinimumAmount) {
		return apperr.Newf(apperr.KindAmountBelowMinimum, "amount must be at least %s", c.MinimumAmount.StringFixed(2))
	}
	return nil
}
