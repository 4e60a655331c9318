package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sponsorwall/backend/internal/events"
	"github.com/sponsorwall/backend/internal/services"
	"github.com/sponsorwall/backend/internal/storage"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Layout repair commands",
}

var layoutClearCmd = &cobra.Command{
	Use:   "clear [campaign-id]",
	Short: "Free every position of a campaign layout",
	Long: `Free every position of a campaign layout. Sponsorship entries are kept;
use it to recover positions left taken by a failed compensation.`,
	Args: cobra.ExactArgs(1),
	RunE: runLayoutClear,
}

var layoutClearYes bool

func init() {
	layoutClearCmd.Flags().BoolVar(&layoutClearYes, "yes", false, "Confirm clearing the layout")

	layoutCmd.AddCommand(layoutClearCmd)
}

func runLayoutClear(cmd *cobra.Command, args []string) error {
	campaignID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid campaign id: %w", err)
	}
	if !layoutClearYes {
		return fmt.Errorf("refusing to clear layout of %s without --yes", campaignID)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, closeStore, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	layouts := services.NewLayoutService(store, events.NopPublisher{}, nil, log)
	n, err := layouts.ClearLayout(ctx, campaignID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Released %d positions\n", n)
	return nil
}
