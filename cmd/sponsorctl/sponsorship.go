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

var sponsorshipCmd = &cobra.Command{
	Use:   "sponsorship",
	Short: "Sponsorship commands",
}

var sponsorshipMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid [sponsorship-id]",
	Short: "Confirm an offline sponsorship on behalf of its organizer",
	Args:  cobra.ExactArgs(1),
	RunE:  runSponsorshipMarkPaid,
}

func init() {
	sponsorshipCmd.AddCommand(sponsorshipMarkPaidCmd)
}

func runSponsorshipMarkPaid(cmd *cobra.Command, args []string) error {
	sponsorshipID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid sponsorship id: %w", err)
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

	entry, err := store.Sponsorships.GetByID(ctx, sponsorshipID)
	if err != nil {
		return fmt.Errorf("get sponsorship: %w", err)
	}
	campaign, err := store.Campaigns.GetByID(ctx, entry.CampaignID)
	if err != nil {
		return fmt.Errorf("get campaign: %w", err)
	}

	layouts := services.NewLayoutService(store, events.NopPublisher{}, nil, log)
	entries := services.NewSponsorshipService(store, layouts, events.NopPublisher{}, log)
	paid, err := entries.MarkPaid(ctx, sponsorshipID, campaign.OrganizerID)
	if err != nil {
		return err
	}

	if paid.PaidAt == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Sponsorship %s paid\n", paid.ID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sponsorship %s paid at %s\n", paid.ID, paid.PaidAt.Format("2006-01-02 15:04:05"))
	return nil
}
