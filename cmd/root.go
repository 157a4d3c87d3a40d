package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "modguard",
	Short: "Content moderation queue with automatic PII redaction",
	Long: `modguard keeps a queue of reported content for moderator review.
Reported text is truncated and scrubbed of email addresses, phone numbers
and IP addresses before it is stored, and every redaction and review
decision is written to an append-only audit trail.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".modguard.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
