package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/history"
	"github.com/tonimelisma/webstore-go/internal/store"
)

func newDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <percentage>",
		Short: "Set the rollout percentage of the published revision",
		Long: `Set the share of users (0-100) that receive the published revision.
The store only allows increasing an existing rollout.`,
		Args: cobra.ExactArgs(1),
		RunE: runDeploy,
	}
}

// deployOutput is the JSON schema for `deploy --json`.
type deployOutput struct {
	ItemID           string `json:"item_id"`
	DeployPercentage int    `json:"deploy_percentage"`
}

func runDeploy(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	itemID, err := requireItem(cc)
	if err != nil {
		return err
	}

	pct, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid percentage %q: must be an integer from 0 to 100", args[0])
	}

	if err := store.ValidateDeployPercentage(pct); err != nil {
		return err
	}

	sess, err := newStoreSession(cc)
	if err != nil {
		return err
	}

	detail := strconv.Itoa(pct) + "%"

	if err := sess.Client.SetDeployPercentage(cmd.Context(), itemID, pct); err != nil {
		recordOperation(cmd.Context(), cc, history.OpDeploy, itemID, outcomeOf(err), detail)
		return err
	}

	recordOperation(cmd.Context(), cc, history.OpDeploy, itemID, history.OutcomeOK, detail)

	if cc.Flags.JSON {
		return printJSON(cc.Stdout, deployOutput{ItemID: itemID, DeployPercentage: pct})
	}

	cc.Statusf("Rollout of %s set to %d%%.\n", itemID, pct)

	return nil
}
