package commands

import (
	"context"
	"errors"
	"fmt"

	"go-warehouse-ws/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	resetEmail    string
	resetPassword string
)

// resetPasswordCmd sets a user's password without knowing the old one.
// All sessions of that user are invalidated.
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Reset a user's password",
	Example: `  inventoryctl reset-password --email admin@example.com --password admin123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(resetPassword) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		_, db, err := connect()
		if err != nil {
			return err
		}
		users := repository.NewStore(db).Users()
		ctx := context.Background()

		user, err := users.FindByEmail(ctx, resetEmail)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("user %s not found", resetEmail)
			}
			return err
		}

		if err := user.SetPassword(resetPassword); err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.TokenVersion = uuid.NewString()
		user.UpdatedBy = "inventoryctl"
		if err := users.Update(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		success("Password for %s has been reset", user.Email)
		return nil
	},
}

func init() {
	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "Email of the user")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "New password (min 8 characters)")
	_ = resetPasswordCmd.MarkFlagRequired("email")
	_ = resetPasswordCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(resetPasswordCmd)
}
