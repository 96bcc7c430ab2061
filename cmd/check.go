package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meko-christian/inbox-glance/internal/retrieval"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fetch a one-shot summary of recent messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()

		pipeline, _, err := newPipeline(viper.GetString("check.mbox"))
		if err != nil {
			return err
		}

		all, _ := flags.GetBool("all")
		unseenOnly := !all
		limit, _ := flags.GetInt("limit")
		folder, _ := flags.GetString("folder")
		from, _ := flags.GetString("from")
		subject, _ := flags.GetString("subject")
		asJSON, _ := flags.GetBool("json")

		req := retrieval.Request{
			Username:      viper.GetString("check.username"),
			Password:      viper.GetString("check.password"),
			Folder:        folder,
			UnseenOnly:    &unseenOnly,
			Limit:         limit,
			FilterFrom:    from,
			FilterSubject: subject,
		}

		result := pipeline.Retrieve(cmd.Context(), req)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
		}

		messages, ok := result.Messages()
		if !ok {
			return errors.New(result.Failure().Message)
		}

		if asJSON {
			return nil
		}

		if len(messages) == 0 {
			fmt.Println("No matching messages.")
			return nil
		}

		for _, msg := range messages {
			fmt.Printf("%s\n  from: %s\n  date: %s\n  %s\n\n", msg.Subject, msg.From, msg.Date, msg.Preview)
		}
		return nil
	},
}

func init() {
	flags := checkCmd.Flags()
	flags.String("username", "", "Mailbox username (or INBOX_USERNAME)")
	flags.String("password", "", "Mailbox password (or INBOX_PASSWORD)")
	flags.String("folder", retrieval.DefaultFolder, "Folder to search")
	flags.Bool("all", false, "Include messages that were already read")
	flags.Int("limit", 0, "Number of most recent matches to fetch (default from config)")
	flags.String("from", "", "Keep messages whose sender contains this text")
	flags.String("subject", "", "Keep messages whose subject contains this text")
	flags.Bool("json", false, "Print the result as JSON")
	flags.String("mbox", "", "Read a local mbox file instead of the IMAP server")

	for key, env := range map[string]string{
		"check.username": "INBOX_USERNAME",
		"check.password": "INBOX_PASSWORD",
	} {
		_ = viper.BindEnv(key, env)
	}
	_ = viper.BindPFlag("check.username", flags.Lookup("username"))
	_ = viper.BindPFlag("check.password", flags.Lookup("password"))
	_ = viper.BindPFlag("check.mbox", flags.Lookup("mbox"))
}
