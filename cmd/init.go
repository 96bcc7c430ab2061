package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meko-christian/inbox-glance/internal/config"
	"github.com/meko-christian/inbox-glance/internal/web"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively generate a config.yaml file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := "config.yaml"

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configFile); err == nil {
			if !force {
				fmt.Printf("config.yaml already exists. Use --force to overwrite.\n")
				return nil
			}
			path, err := config.NewBackup("").Create(configFile, "pre_init")
			if err != nil {
				return err
			}
			fmt.Printf("Existing config.yaml saved to %s\n", path)
		}

		reader := bufio.NewReader(os.Stdin)

		fmt.Println("Let's set up your config.yaml!")

		fmt.Println("\n--- IMAP ---")
		imapServer := promptDefault(reader, "IMAP server", "outlook.office365.com")
		imapPort := promptDefault(reader, "IMAP port", "993")
		imapSecurity := promptDefault(reader, "IMAP security (ssl/starttls/none)", "ssl")

		fmt.Println("\n--- WEB ---")
		webBind := promptDefault(reader, "Bind address", "127.0.0.1")
		webPort := promptDefault(reader, "Port", "5000")
		accessUser := prompt(reader, "Access username (empty for no login): ")

		var accessHash string
		if accessUser != "" {
			accessPassword := prompt(reader, "Access password: ")
			hash, err := web.HashPassword(accessPassword)
			if err != nil {
				return fmt.Errorf("failed to hash access password: %w", err)
			}
			accessHash = hash
		}

		locale := promptDefault(reader, "Message language (en/ar)", "en")

		content := fmt.Sprintf(`imap:
  server: %s
  port: %s
  security: %s
  probe_timeout: 6s
  command_timeout: 30s
  mark_seen: true

retrieval:
  preview_length: 240
  default_limit: 20
  max_limit: 0

web:
  bind: %s
  port: "%s"
  access_user: %q
  access_password_hash: %q

locale: %s
`, imapServer, imapPort, imapSecurity, webBind, webPort, accessUser, accessHash, locale)

		if err := os.WriteFile(configFile, []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to write config.yaml: %w", err)
		}

		fmt.Println("\n✅ config.yaml created successfully.")
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing config.yaml (a backup is kept)")
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := r.ReadString('\n')
	return strings.TrimSpace(text)
}

func promptDefault(r *bufio.Reader, label, def string) string {
	if v := prompt(r, fmt.Sprintf("%s [%s]: ", label, def)); v != "" {
		return v
	}
	return def
}
