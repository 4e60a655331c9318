package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sponsorwall/backend/internal/layout"
	"github.com/sponsorwall/backend/internal/pricing"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Pricing tools",
}

var pricingQuoteCmd = &cobra.Command{
	Use:   "quote [config.json]",
	Short: "Print the price of every grid position for a pricing config",
	Long: `Print the price of every grid position for a pricing config file of the form
{"campaign_type": "positional", "pricing_config": {...}}.`,
	Args: cobra.ExactArgs(1),
	RunE: runPricingQuote,
}

var (
	quotePositions int
	quoteColumns   int
)

func init() {
	pricingQuoteCmd.Flags().IntVar(&quotePositions, "positions", 20, "Total grid positions")
	pricingQuoteCmd.Flags().IntVar(&quoteColumns, "columns", 5, "Grid columns")

	pricingCmd.AddCommand(pricingQuoteCmd)
}

type quoteFile struct {
	CampaignType  pricing.CampaignType `json:"campaign_type"`
	PricingConfig json.RawMessage      `json:"pricing_config"`
}

func runPricingQuote(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var f quoteFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	cfg, err := pricing.DecodeConfig(f.CampaignType, f.PricingConfig)
	if err != nil {
		return err
	}
	if err := pricing.ValidateFor(f.CampaignType, cfg); err != nil {
		return err
	}
	return writeQuote(cmd.OutOrStdout(), cfg, layout.Dimensions{TotalPositions: quotePositions, Columns: quoteColumns})
}

func writeQuote(w io.Writer, cfg pricing.Config, d layout.Dimensions) error {
	placements, err := layout.BuildPlacements(d, cfg)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tROW\tCOL\tSECTION\tPRICE")
	for _, p := range placements {
		section := "-"
		if p.Section != nil {
			section = *p.Section
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", p.PositionID, p.Row, p.Column, section, p.Price.StringFixed(2))
	}
	return tw.Flush()
}
