package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventhub-api/internal/service"
)

func newSeedAdminCmd(a *app) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an ADMIN account unless the email already exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			// Seeding issues no tokens.
			users := service.NewAuth(store, nil)
			u, created, err := users.EnsureAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			if created {
				a.log.Info("admin created", "email", u.Email, "id", u.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", u.Email, u.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists with role %s\n", u.Email, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@eventhub.local", "admin email")
	cmd.Flags().StringVar(&password, "password", "Admin123!", "admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	return cmd
}
