package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meko-christian/inbox-glance/internal/web"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for web.access_password_hash",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := prompt(bufio.NewReader(os.Stdin), "Password: ")
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		hash, err := web.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		fmt.Println(hash)
		return nil
	},
}
