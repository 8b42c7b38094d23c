package main

import (
	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/history"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Withdraw the revision currently under review",
		Args:  cobra.NoArgs,
		RunE:  runCancel,
	}
}

// cancelOutput is the JSON schema for `cancel --json`.
type cancelOutput struct {
	ItemID   string `json:"item_id"`
	Canceled bool   `json:"canceled"`
}

func runCancel(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	itemID, err := requireItem(cc)
	if err != nil {
		return err
	}

	sess, err := newStoreSession(cc)
	if err != nil {
		return err
	}

	if err := sess.Client.CancelSubmission(cmd.Context(), itemID); err != nil {
		recordOperation(cmd.Context(), cc, history.OpCancel, itemID, outcomeOf(err), "")
		return err
	}

	recordOperation(cmd.Context(), cc, history.OpCancel, itemID, history.OutcomeOK, "")

	if cc.Flags.JSON {
		return printJSON(cc.Stdout, cancelOutput{ItemID: itemID, Canceled: true})
	}

	cc.Statusf("Submission for %s canceled.\n", itemID)

	return nil
}
