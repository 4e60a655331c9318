// Package pricing computes slot prices and display tiers for campaigns.
// All functions are pure; persistence and reservation live elsewhere.
package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/apperr"
)

type CampaignType string

const (
	TypeFixed          CampaignType = "fixed"
	TypePositional     CampaignType = "positional"
	TypePayWhatYouWant CampaignType = "pay-what-you-want"
)

func (t CampaignType) Valid() bool {
	switch t {
	case TypeFixed, TypePositional, TypePayWhatYouWant:
		return true
	}
	return false
}

// UsesPositions reports whether sponsors of this type claim grid slots.
func (t CampaignType) UsesPositions() bool {
	return t == TypeFixed || t == TypePositional
}

type Order string

const (
	OrderAscending  Order = "ascending"
	OrderDescending Order = "descending"
)

// Config is the pricing configuration of a campaign. The concrete type
// always matches the campaign type: FixedConfig, PositionalConfig or
// PayWhatYouWantConfig.
type Config interface {
	Type() CampaignType
	isConfig()
}

type FixedConfig struct {
	FixedPrice decimal.Decimal `json:"fixedPrice"`
}

func (FixedConfig) Type() CampaignType { return TypeFixed }
func (FixedConfig) isConfig()          {}

const (
	SectionTop    = "top"
	SectionMiddle = "middle"
	SectionBottom = "bottom"
)

type Section struct {
	Amount decimal.Decimal `json:"amount"`
	Slots  int             `json:"slots"`
}

type Sections struct {
	Top    *Section `json:"top,omitempty"`
	Middle *Section `json:"middle,omitempty"`
	Bottom *Section `json:"bottom,omitempty"`
}

type namedSection struct {
	name string
	*Section
}

// ordered returns the defined sections in top, middle, bottom order.
func (s *Sections) ordered() []namedSection {
	if s == nil {
		return nil
	}
	var out []namedSection
	for _, ns := range []namedSection{{SectionTop, s.Top}, {SectionMiddle, s.Middle}, {SectionBottom, s.Bottom}} {
		if ns.Section != nil {
			out = append(out, ns)
		}
	}
	return out
}

// TotalSlots is the number of positions covered by all defined sections.
func (s *Sections) TotalSlots() int {
	total := 0
	for _, ns := range s.ordered() {
		total += ns.Slots
	}
	return total
}

// Lookup returns a section by name.
func (s *Sections) Lookup(name string) (*Section, bool) {
	for _, ns := range s.ordered() {
		if ns.name == name {
			return ns.Section, true
		}
	}
	return nil, false
}

// PositionalConfig holds exactly one pricing family: sections, a multiplier,
// or an additive base price with a per-position step.
type PositionalConfig struct {
	Sections         *Sections        `json:"sections,omitempty"`
	PriceMultiplier  *decimal.Decimal `json:"priceMultiplier,omitempty"`
	BasePrice        *decimal.Decimal `json:"basePrice,omitempty"`
	PricePerPosition *decimal.Decimal `json:"pricePerPosition,omitempty"`
	PricingOrder     Order            `json:"pricingOrder,omitempty"`
}

func (PositionalConfig) Type() CampaignType { return TypePositional }
func (PositionalConfig) isConfig()          {}

func (c PositionalConfig) hasSections() bool {
	return len(c.Sections.ordered()) > 0
}

func (c PositionalConfig) hasMultiplier() bool {
	return c.PriceMultiplier != nil
}

func (c PositionalConfig) hasAdditive() bool {
	return c.BasePrice != nil || c.PricePerPosition != nil
}

type PayWhatYouWantConfig struct {
	MinimumAmount    decimal.Decimal   `json:"minimumAmount"`
	SuggestedAmounts []decimal.Decimal `json:"suggestedAmounts,omitempty"`
	SizeTiers        []SizeTier        `json:"sizeTiers,omitempty"`
}

func (PayWhatYouWantConfig) Type() CampaignType { return TypePayWhatYouWant }
func (PayWhatYouWantConfig) isConfig()          {}

// DecodeConfig parses a stored or submitted pricing document for the given
// campaign type.
func DecodeConfig(t CampaignType, raw []byte) (Config, error) {
	if len(raw) == 0 {
		return nil, apperr.InvalidPricing("pricing config is required")
	}
	switch t {
	case TypeFixed:
		var c FixedConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidPricingConfig, err, "malformed fixed pricing config")
		}
		return c, nil
	case TypePositional:
		var c PositionalConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidPricingConfig, err, "malformed positional pricing config")
		}
		return c, nil
	case TypePayWhatYouWant:
		var c PayWhatYouWantConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidPricingConfig, err, "malformed pay-what-you-want pricing config")
		}
		return c, nil
	default:
		return nil, apperr.InvalidPricing("unknown campaign type %q", t)
	}
}

func EncodeConfig(c Config) ([]byte, error) {
	return json.Marshal(c)
}
