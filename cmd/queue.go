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
	queueStatus string
	queueJSON   bool
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List moderation items",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := moderation.ParseFilter(queueStatus)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.svc.Queue(cmd.Context(), status)
		if err != nil {
			return err
		}

		if queueJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		if len(items) == 0 {
			fmt.Println("Queue is empty.")
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tSEVERITY\tREASON\tSUBMITTER\tFLAGGED\tCONTENT")
		for _, it := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				it.ID, it.Status, it.Severity, it.Reason, it.Submitter,
				it.Timestamp.Local().Format("2006-01-02 15:04"), preview(it.Content, 60))
		}
		return tw.Flush()
	},
}

// preview shortens s to n runes on a single line for table output.
func preview(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}

func init() {
	queueCmd.Flags().StringVar(&queueStatus, "status", "All", "filter by status (All, Pending, Approved, Rejected)")
	queueCmd.Flags().BoolVar(&queueJSON, "json", false, "print items as JSON")
	rootCmd.AddCommand(queueCmd)
}
