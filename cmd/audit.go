package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

var (
	auditItem   string
	auditAction string
	auditJSON   bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the moderation audit trail",
	Long:  `Lists audit entries oldest first: automated PII redactions and moderator decisions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := moderation.AuditFilter{ItemID: auditItem}
		if auditAction != "" {
			action, err := moderation.ParseAction(auditAction)
			if err != nil {
				return err
			}
			filter.Action = action
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.svc.AuditLogs(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if auditJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tITEM\tACTOR\tREASON")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.ItemID, e.AdminID, e.Reason)
		}
		return tw.Flush()
	},
}

func init() {
	auditCmd.Flags().StringVar(&auditItem, "item", "", "only entries for this item id")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "only entries with this action (Approved, Rejected, PII_MASKED)")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "print entries as JSON")
	rootCmd.AddCommand(auditCmd)
}
