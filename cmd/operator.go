package cmd

import (
	"errors"
	"fmt"

	"festival-tickets/internal/store/memstore"
	"festival-tickets/internal/store/pbstore"

	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"
)

func newOperatorCmd(app core.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage gate operator accounts",
	}

	var email, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an operator in the operators collection",
		RunE: func(c *cobra.Command, args []string) error {
			if err := app.RunAllMigrations(); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}

			op, err := pbstore.New(app).CreateOperator(c.Context(), email, password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "created operator %s (%s)\n", op.Email, op.Role)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "operator email")
	create.Flags().StringVar(&password, "password", "", "operator password")
	create.Flags().StringVar(&role, "role", pbstore.RoleAdmin, "operator role")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	hash := &cobra.Command{
		Use:   "hash <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if args[0] == "" {
				return errors.New("password must not be empty")
			}
			h, err := memstore.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), h)
			return nil
		},
	}

	cmd.AddCommand(create, hash)
	return cmd
}
