package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, list, restore and delete backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the database and rotate the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ledger.Services.Backup.Create(cmd.Context(), actor)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		backups, err := ledger.Services.Backup.List(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tENTRIES\tDATABASE\tSTATUS")
		for _, b := range backups {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d B\t%s\n",
				b.ID, b.CreatedAt.Format("2006-01-02 15:04:05"), b.EntryCount, b.DBSizeBytes, b.Completeness)
		}
		return w.Flush()
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <backup-id>",
	Short: "Replace the live data with a backup",
	Long: `Restore takes a safety backup of the current state first and aborts
without touching anything when that fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ledger.Services.Backup.Restore(cmd.Context(), args[0], actor); err != nil {
			return err
		}
		fmt.Printf("Restored %s\n", args[0])
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete <backup-id>",
	Short: "Delete a backup's files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ledger.Services.Backup.Delete(cmd.Context(), args[0], actor)
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupDeleteCmd)
	rootCmd.AddCommand(backupCmd)
}
