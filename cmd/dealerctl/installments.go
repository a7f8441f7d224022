package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sjperalta/dealer-ledger/internal/models"
)

var installmentsCmd = &cobra.Command{
	Use:   "installments",
	Short: "Installment plan maintenance",
}

var refreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Mark plans past their scheduled payment as overdue",
	Example: `  dealerctl installments refresh --today 2024-04-15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		today, err := todayFlag(cmd)
		if err != nil {
			return err
		}
		changed, err := ledger.Services.Installment.RefreshStatuses(cmd.Context(), today, actor)
		if err != nil {
			return err
		}
		fmt.Printf("%d plan(s) changed status\n", changed)
		return nil
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "List overdue plans, most days late first",
	RunE: func(cmd *cobra.Command, args []string) error {
		today, err := todayFlag(cmd)
		if err != nil {
			return err
		}
		plans, err := ledger.Services.Installment.ListOverdue(cmd.Context(), today)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PLAN\tCLIENT\tNEXT PAYMENT\tDAYS LATE\tREMAINING")
		for _, p := range plans {
			fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\n",
				p.ID, p.ClientID, p.NextPaymentDate, p.DaysLate, models.Money(p.RemainingAmount))
		}
		return w.Flush()
	},
}

// todayFlag reads --today; empty means the current day
func todayFlag(cmd *cobra.Command) (models.Date, error) {
	raw, _ := cmd.Flags().GetString("today")
	if raw == "" {
		return models.Today(), nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid --today, use YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func init() {
	for _, c := range []*cobra.Command{refreshCmd, overdueCmd} {
		c.Flags().String("today", "", "Evaluate as of this day (format: YYYY-MM-DD, default: today)")
		installmentsCmd.AddCommand(c)
	}
	rootCmd.AddCommand(installmentsCmd)
}
