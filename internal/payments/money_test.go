package payments

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
		wantErr  bool
	}{
		{"50", "usd", 5000, false},
		{"12.34", "EUR", 1234, false},
		{"0.5", "gbp", 50, false},
		{"1500", "jpy", 1500, false},
		{"1500", "KRW", 1500, false},
		{"12.345", "usd", 0, true},
		{"10.5", "jpy", 0, true},
		{"0", "usd", 0, true},
		{"-5", "usd", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.amount+tt.currency, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ToMinorUnits: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToMinorUnits(%s, %s) = %d, want %d", tt.amount, tt.currency, got, tt.want)
			}
		})
	}
}

func TestFromMinorUnits(t *testing.T) {
	if got := FromMinorUnits(5000, "usd"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("FromMinorUnits(5000, usd) = %s", got)
	}
	if got := FromMinorUnits(1234, "eur"); !got.Equal(decimal.RequireFromString("12.34")) {
		t.Errorf("FromMinorUnits(1234, eur) = %s", got)
	}
	if got := FromMinorUnits(1500, "jpy"); !got.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("FromMinorUnits(1500, jpy) = %s", got)
	}
}
