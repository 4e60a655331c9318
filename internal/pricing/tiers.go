package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SizeTier maps a range of paid amounts to a display size. A nil MaxAmount
// has no upper bound.
type SizeTier struct {
	Size      string           `json:"size"`
	MinAmount decimal.Decimal  `json:"minAmount"`
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
	FontSize  int              `json:"fontSize"`
	LogoWidth int              `json:"logoWidth"`
}

func (t SizeTier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.MinAmount) {
		return false
	}
	return t.MaxAmount == nil || !amount.GreaterThan(*t.MaxAmount)
}

func bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var DefaultSizeTiers = []SizeTier{
	{Size: "small", MinAmount: decimal.NewFromInt(5), MaxAmount: bound(24), FontSize: 14, LogoWidth: 80},
	{Size: "medium", MinAmount: decimal.NewFromInt(25), MaxAmount: bound(49), FontSize: 18, LogoWidth: 120},
	{Size: "large", MinAmount: decimal.NewFromInt(50), MaxAmount: bound(99), FontSize: 24, LogoWidth: 160},
	{Size: "xlarge", MinAmount: decimal.NewFromInt(100), FontSize: 32, LogoWidth: 220},
}

// TiersFor returns the size tiers that apply to a campaign.
func TiersFor(cfg Config) []SizeTier {
	if c, ok := cfg.(PayWhatYouWantConfig); ok && len(c.SizeTiers) > 0 {
		return c.SizeTiers
	}
	return DefaultSizeTiers
}

// ClassifyTier scans tiers from the highest minimum down and returns the
// first one containing amount. Amounts below every tier get the lowest tier.
// ok is false only when tiers is empty.
func ClassifyTier(amount decimal.Decimal, tiers []SizeTier) (tier SizeTier, ok bool) {
	if len(tiers) == 0 {
		return SizeTier{}, false
	}
	sorted := make([]SizeTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinAmount.GreaterThan(sorted[j].MinAmount)
	})

	for _, t := range sorted {
		if t.Contains(amount) {
			return t, true
		}
	}
	return sorted[len(sorted)-1], true
}
