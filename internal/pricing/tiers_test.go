package pricing

import "testing"

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"10", "small"},
		{"30", "medium"},
		{"75", "large"},
		{"150", "xlarge"},
		{"3", "small"},
		{"24", "small"},
		{"24.5", "small"},
		{"25", "medium"},
		{"99", "large"},
		{"100", "xlarge"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			tier, ok := ClassifyTier(dec(tt.amount), DefaultSizeTiers)
			if !ok {
				t.Fatal("expected a tier")
			}
			if tier.Size != tt.want {
				t.Errorf("ClassifyTier(%s) = %s, want %s", tt.amount, tier.Size, tt.want)
			}
		})
	}
}

func TestClassifyTierUnsortedInput(t *testing.T) {
	tiers := []SizeTier{
		{Size: "gold", MinAmount: dec("500"), FontSize: 40, LogoWidth: 300},
		{Size: "bronze", MinAmount: dec("10"), MaxAmount: decp("99"), FontSize: 12, LogoWidth: 60},
		{Size: "silver", MinAmount: dec("100"), MaxAmount: decp("499"), FontSize: 20, LogoWidth: 140},
	}

	tests := []struct {
		amount string
		want   string
	}{
		{"1", "bronze"},
		{"50", "bronze"},
		{"250", "silver"},
		{"10000", "gold"},
	}
	for _, tt := range tests {
		tier, _ := ClassifyTier(dec(tt.amount), tiers)
		if tier.Size != tt.want {
			t.Errorf("ClassifyTier(%s) = %s, want %s", tt.amount, tier.Size, tt.want)
		}
	}
	if tiers[0].Size != "gold" {
		t.Error("ClassifyTier must not reorder the caller's slice")
	}
}

func TestClassifyTierEmpty(t *testing.T) {
	if _, ok := ClassifyTier(dec("10"), nil); ok {
		t.Fatal("empty tier list should not classify")
	}
}

func TestTiersFor(t *testing.T) {
	custom := []SizeTier{{Size: "only", MinAmount: dec("1"), FontSize: 10, LogoWidth: 10}}
	if got := TiersFor(PayWhatYouWantConfig{MinimumAmount: dec("1"), SizeTiers: custom}); got[0].Size != "only" {
		t.Errorf("pay-what-you-want tiers should win, got %s", got[0].Size)
	}
	if got := TiersFor(FixedConfig{FixedPrice: dec("10")}); len(got) != len(DefaultSizeTiers) {
		t.Errorf("fixed campaigns should use default tiers")
	}
}
