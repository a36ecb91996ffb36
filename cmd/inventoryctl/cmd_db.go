package main

import (
	"fmt"

	"inventory-system/internal/database"
	users "inventory-system/internal/services/user/handler"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// inventoryctl migrate
func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(db *gorm.DB) error {
				if err := database.Migrate(db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

// inventoryctl promote-staff <username>
func (a *app) promoteStaffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote-staff <username>",
		Short: "Grant staff privileges to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(db *gorm.DB) error {
				h := users.NewUserHandler(db, nil, a.log)
				if err := h.PromoteStaff(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %s is now staff\n", args[0])
				return nil
			})
		},
	}
}
