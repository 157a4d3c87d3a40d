package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

var (
	flagReason    string
	flagSubmitter string
	flagJSON      bool
)

var flagCmd = &cobra.Command{
	Use:   "flag [content]",
	Short: "Report content for moderation",
	Long: `Adds a report to the moderation queue. Content is taken from the
arguments, or from stdin when no arguments are given. It is truncated and
scrubbed of email addresses, phone numbers and IP addresses before storage.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, err := moderation.ParseReason(flagReason)
		if err != nil {
			return err
		}

		content := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			content = strings.TrimRight(string(data), "\n")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := a.svc.Flag(cmd.Context(), flagSubmitter, content, reason)
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(item)
		}
		fmt.Printf("Flagged %s (%s, severity %s)\n", item.ID, item.Reason, item.Severity)
		fmt.Printf("Stored content: %s\n", item.Content)
		return nil
	},
}

func init() {
	flagCmd.Flags().StringVarP(&flagReason, "reason", "r", string(moderation.ReasonSpam), "report reason (Hate Speech, Spam, Personal Attack, Misinformation)")
	flagCmd.Flags().StringVarP(&flagSubmitter, "submitter", "s", "anonymous", "identifier of the reporter")
	flagCmd.Flags().BoolVar(&flagJSON, "json", false, "print the stored item as JSON")
	rootCmd.AddCommand(flagCmd)
}
