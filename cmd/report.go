package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/modguard/internal/moderation"
	"github.com/ziadkadry99/modguard/internal/report"
)

var (
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a moderation report as markdown or HTML",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportFormat != "md" && reportFormat != "html" {
			return fmt.Errorf("unsupported format %q (want md or html)", reportFormat)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		stats, err := a.svc.Stats(ctx)
		if err != nil {
			return err
		}
		items, err := a.svc.Queue(ctx, "")
		if err != nil {
			return err
		}
		entries, err := a.svc.AuditLogs(ctx, moderation.AuditFilter{})
		if err != nil {
			return err
		}

		md := report.Markdown(report.Data{
			GeneratedAt: time.Now(),
			Stats:       stats,
			Items:       items,
			Audit:       entries,
		})
		out := []byte(md)
		if reportFormat == "html" {
			if out, err = report.HTML(md, "Moderation Report"); err != nil {
				return err
			}
		}

		if reportOutput == "" || reportOutput == "-" {
			_, err = os.Stdout.Write(out)
			return err
		}
		if err := os.WriteFile(reportOutput, out, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportOutput)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "md", "output format (md or html)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(reportCmd)
}
