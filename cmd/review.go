package cmd

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

var (
	reviewApprove     bool
	reviewReject      bool
	reviewAdmin       string
	reviewInteractive bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [item-id]",
	Short: "Approve or reject a pending moderation item",
	Long: `Records a moderator decision on a pending item and appends it to the
audit trail. With --interactive, pick the item and decision from a list of
pending items instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !reviewInteractive {
			if len(args) != 1 {
				return errors.New("an item id is required unless --interactive is set")
			}
			if reviewApprove == reviewReject {
				return errors.New("exactly one of --approve or --reject is required")
			}
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		admin := reviewAdmin
		if admin == "" {
			admin = a.cfg.DefaultAdmin
		}

		if reviewInteractive {
			return reviewInteractively(cmd, a, admin)
		}

		decision := moderation.StatusApproved
		if reviewReject {
			decision = moderation.StatusRejected
		}
		if err := a.svc.Review(cmd.Context(), args[0], admin, decision); err != nil {
			return err
		}
		fmt.Printf("%s marked %s by %s\n", args[0], decision, admin)
		return nil
	},
}

func reviewInteractively(cmd *cobra.Command, a *app, admin string) error {
	ctx := cmd.Context()
	pending, err := a.svc.Queue(ctx, moderation.StatusPending)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("Nothing to review.")
		return nil
	}

	labels := make([]string, len(pending))
	for i, it := range pending {
		labels[i] = fmt.Sprintf("[%s] %s: %s", it.Severity, it.Reason, preview(it.Content, 50))
	}
	itemPrompt := promptui.Select{
		Label: "Select item to review",
		Items: labels,
		Size:  10,
	}
	idx, _, err := itemPrompt.Run()
	if err != nil {
		return fmt.Errorf("item selection: %w", err)
	}
	item := pending[idx]
	fmt.Printf("\n%s\n\n", item.Content)

	decisionPrompt := promptui.Select{
		Label: "Decision",
		Items: []string{string(moderation.StatusApproved), string(moderation.StatusRejected)},
	}
	_, choice, err := decisionPrompt.Run()
	if err != nil {
		return fmt.Errorf("decision selection: %w", err)
	}

	decision := moderation.Status(choice)
	if err := a.svc.Review(ctx, item.ID, admin, decision); err != nil {
		return err
	}
	fmt.Printf("%s marked %s by %s\n", item.ID, decision, admin)
	return nil
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "approve the item")
	reviewCmd.Flags().BoolVar(&reviewReject, "reject", false, "reject the item")
	reviewCmd.Flags().StringVar(&reviewAdmin, "admin", "", "moderator id recorded in the audit trail (default from config)")
	reviewCmd.Flags().BoolVarP(&reviewInteractive, "interactive", "i", false, "choose item and decision interactively")
	rootCmd.AddCommand(reviewCmd)
}
