package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sponsorwall/backend/internal/layout"
	"github.com/sponsorwall/backend/internal/pricing"
)

func TestWriteQuote(t *testing.T) {
	base := decimal.NewFromInt(10)
	step := decimal.NewFromInt(5)
	cfg := pricing.PositionalConfig{BasePrice: &base, PricePerPosition: &step}

	var buf bytes.Buffer
	if err := writeQuote(&buf, cfg, layout.Dimensions{TotalPositions: 4, Columns: 2}); err != nil {
		t.Fatalf("writeQuote: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	want := []string{"R1C1", "10.00", "R2C2", "25.00"}
	for _, w := range want {
		if !strings.Contains(buf.String(), w) {
			t.Errorf("quote is missing %q:\n%s", w, buf.String())
		}
	}
}

func TestPricingQuoteCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.json")
	doc := `{"campaign_type":"fixed","pricing_config":{"fixedPrice":"25"}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"pricing", "quote", path, "--positions", "3", "--columns", "3"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.Count(out.String(), "25.00"); got != 3 {
		t.Errorf("want 3 priced positions, got %d:\n%s", got, out.String())
	}
}

func TestPricingQuoteRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.json")
	doc := `{"campaign_type":"positional","pricing_config":{}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"pricing", "quote", path})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for a positional config without a pricing family")
	}
}
