package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/modguard/internal/importer"
	"github.com/ziadkadry99/modguard/internal/progress"
)

var importRoot string

var importCmd = &cobra.Command{
	Use:   "import <pattern>...",
	Short: "Bulk-flag content from JSON Lines files",
	Long: `Reads every file matching the glob patterns (** is supported) and flags
each line {"submitter": "...", "content": "...", "reason": "Spam"}.
Malformed lines are skipped and reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := importer.Expand(importRoot, args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return errors.New("no files matched")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		im := importer.New(a.svc, progress.NewReporter("Importing flags"), a.log)
		res, err := im.Import(cmd.Context(), files)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d item(s) from %d file(s)\n", res.Imported, res.Files)
		for _, s := range res.Skipped {
			fmt.Printf("  skipped %s\n", s.Error())
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importRoot, "root", ".", "directory the patterns are resolved against")
	rootCmd.AddCommand(importCmd)
}
