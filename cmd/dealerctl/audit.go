package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjperalta/dealer-ledger/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the audit log",
}

var auditTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the most recent audit events",
	Example: `  dealerctl audit tail --limit 20
  dealerctl audit tail --event backup_restore --failed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		event, _ := cmd.Flags().GetString("event")
		limit, _ := cmd.Flags().GetInt("limit")
		failed, _ := cmd.Flags().GetBool("failed")
		if limit < 0 {
			return fmt.Errorf("limit must not be negative")
		}

		events, err := ledger.Services.Audit.List(cmd.Context(), audit.Filter{
			EventType:  event,
			FailedOnly: failed,
			Limit:      limit,
		})
		if err != nil {
			return err
		}
		for _, e := range events {
			fmt.Println(e.Line())
		}
		return nil
	},
}

func init() {
	auditTailCmd.Flags().String("event", "", "Only this event type")
	auditTailCmd.Flags().Int("limit", 50, "Maximum number of events (0 for all)")
	auditTailCmd.Flags().Bool("failed", false, "Only failed operations")
	auditCmd.AddCommand(auditTailCmd)
	rootCmd.AddCommand(auditCmd)
}
