package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/history"
	"github.com/tonimelisma/webstore-go/internal/store"
)

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Submit the current draft of the selected item for publishing",
		Long: `Submit the item's current draft for review and publishing.

--staged holds the revision after review until it is published explicitly.
--deploy-percentage starts a partial rollout (0-100).`,
		Args: cobra.NoArgs,
		RunE: runPublish,
	}

	cmd.Flags().Bool("staged", false, "stage the revision instead of publishing it after review")
	cmd.Flags().Bool("skip-review", false, "ask the store to skip review where the item qualifies")
	cmd.Flags().Int("deploy-percentage", 0, "initial rollout percentage (0-100)")

	return cmd
}

// publishOutput is the JSON schema for `publish --json`.
type publishOutput struct {
	ItemID string `json:"item_id"`
	State  string `json:"state"`
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	itemID, err := requireItem(cc)
	if err != nil {
		return err
	}

	staged, _ := cmd.Flags().GetBool("staged")
	skipReview, _ := cmd.Flags().GetBool("skip-review")

	req := store.PublishRequest{
		PublishType: store.PublishTypeDefault,
		SkipReview:  skipReview,
	}

	if staged {
		req.PublishType = store.PublishTypeStaged
	}

	if cmd.Flags().Changed("deploy-percentage") {
		pct, _ := cmd.Flags().GetInt("deploy-percentage")
		if err := store.ValidateDeployPercentage(pct); err != nil {
			return err
		}

		req.DeployPercentage = &pct
	}

	sess, err := newStoreSession(cc)
	if err != nil {
		return err
	}

	out, err := publishItem(cmd.Context(), cc, sess, itemID, req)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return printJSON(cc.Stdout, out)
	}

	fmt.Fprintf(cc.Stdout, "Item:  %s\n", out.ItemID)
	fmt.Fprintf(cc.Stdout, "State: %s\n", formatState(out.State))

	return nil
}

// publishItem publishes itemID and journals the outcome. Shared by the
// publish command and upload --publish.
func publishItem(
	ctx context.Context, cc *CLIContext, sess *storeSession, itemID string, req store.PublishRequest,
) (*publishOutput, error) {
	detail := string(req.PublishType)
	if req.DeployPercentage != nil {
		detail = fmt.Sprintf("%s %d%%", detail, *req.DeployPercentage)
	}

	res, err := sess.Client.Publish(ctx, itemID, req)
	if err != nil {
		recordOperation(ctx, cc, history.OpPublish, itemID, outcomeOf(err), detail)
		return nil, err
	}

	recordOperation(ctx, cc, history.OpPublish, itemID, string(res.State), detail)

	id := res.ItemID
	if id == "" {
		id = itemID
	}

	return &publishOutput{ItemID: id, State: string(res.State)}, nil
}
