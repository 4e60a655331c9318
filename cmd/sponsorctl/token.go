package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sponsorwall/backend/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Organizer token commands",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an organizer API token",
	RunE:  runTokenIssue,
}

var (
	tokenOrganizer string
	tokenEmail     string
	tokenTTL       time.Duration
)

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenOrganizer, "organizer", "", "Organizer id (a new id is generated when empty)")
	tokenIssueCmd.Flags().StringVar(&tokenEmail, "email", "", "Organizer email")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")

	tokenCmd.AddCommand(tokenIssueCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	organizerID := uuid.New()
	if tokenOrganizer != "" {
		organizerID, err = uuid.Parse(tokenOrganizer)
		if err != nil {
			return fmt.Errorf("invalid organizer id: %w", err)
		}
	}
	ttl := tokenTTL
	if ttl <= 0 {
		ttl = cfg.JWTExpiration
	}

	token, err := auth.GenerateJWT(cfg.JWTSecret, organizerID, tokenEmail, ttl)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "organizer: %s\n", organizerID)
	fmt.Fprintf(out, "expires:   %s\n", time.Now().Add(ttl).UTC().Format(time.RFC3339))
	fmt.Fprintln(out, token)
	return nil
}
