package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create one user per role when no users exist",
	Long: `Seed creates admin, sales and accountant accounts with SEED_PASSWORD.
It does nothing once any user exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := ledger.Services.Auth.SeedDefaultUsers(cmd.Context())
		if err != nil {
			return err
		}
		if created == 0 {
			fmt.Println("Users already exist or SEED_PASSWORD is empty; nothing created")
			return nil
		}
		fmt.Printf("Created %d users\n", created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
