package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var retentionDays int

var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Purge readings older than the retention window",
	Long: `Delete readings older than the configured retention period. The serve
command runs the same purge nightly; this command runs it once and exits.`,
	RunE: runRetention,
}

func init() {
	rootCmd.AddCommand(retentionCmd)
	retentionCmd.Flags().IntVar(&retentionDays, "days", 0, "override the configured retention period")
}

func runRetention(cmd *cobra.Command, args []string) error {
	a := appFromContext(cmd.Context())

	days := a.cfg.Retention.Days
	if retentionDays > 0 {
		days = retentionDays
	}
	if days <= 0 {
		return fmt.Errorf("retention period must be positive, got %d", days)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted, err := a.dbManager.DeleteReadingsOlderThan(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge readings: %w", err)
	}

	fmt.Printf("Deleted %d readings older than %s.\n", deleted, cutoff.Format("2006-01-02"))
	return nil
}
