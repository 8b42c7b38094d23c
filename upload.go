package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/history"
	"github.com/tonimelisma/webstore-go/internal/store"
)

// errUploadFailed marks an upload the store processed and rejected.
var errUploadFailed = errors.New("upload failed")

// exitUploadFailed is the exit status for errUploadFailed, distinct from
// usage and transport errors so pipelines can tell them apart.
const exitUploadFailed = 2

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a .zip or .crx package to the selected item",
		Long: `Upload a package to the selected item. When the store processes the
upload asynchronously, the command waits for the result (--wait, bounded by
--max-wait). With --publish, a successful upload is submitted for publishing.`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}

	cmd.Flags().Bool("wait", true, "wait for asynchronous processing to finish")
	cmd.Flags().Duration("max-wait", 0, "upper bound for --wait (default from config max_wait)")
	cmd.Flags().Bool("publish", false, "publish after a successful upload")

	return cmd
}

// uploadOutput is the JSON schema for `upload --json`.
type uploadOutput struct {
	ItemID      string         `json:"item_id"`
	CrxVersion  string         `json:"crx_version,omitempty"`
	UploadState string         `json:"upload_state"`
	Publish     *publishOutput `json:"publish,omitempty"`
}

func runUpload(cmd *cobra.Command, args []string) error {
	cc := mustCLIContext(cmd.Context())

	itemID, err := requireItem(cc)
	if err != nil {
		return err
	}

	wait, _ := cmd.Flags().GetBool("wait")
	publish, _ := cmd.Flags().GetBool("publish")

	maxWait := cc.Cfg.MaxWait
	if cmd.Flags().Changed("max-wait") {
		maxWait, _ = cmd.Flags().GetDuration("max-wait")
	}

	// Validate locally before touching credentials or the network.
	path := args[0]
	if _, err := store.ValidateArtifact(path); err != nil {
		return err
	}

	sess, err := newStoreSession(cc)
	if err != nil {
		return err
	}

	ctx, stop := interruptible(cmd.Context(), cc, "the upload wait")
	defer stop()

	detail := filepath.Base(path)

	cc.Statusf("Uploading %s to %s...\n", detail, itemID)

	res, err := sess.Client.Upload(ctx, itemID, path)
	if err != nil {
		err = interruptCause(ctx, err)
		recordOperation(ctx, cc, history.OpUpload, itemID, outcomeOf(err), detail)
		return err
	}

	state := res.UploadState

	// Only an in-progress job is polled; a missing state is reported as-is.
	if wait && state == store.UploadStateInProgress {
		cc.Statusf("Waiting for the store to process the upload (up to %s)...\n", maxWait)

		state, err = sess.Poller.WaitForCompletion(ctx, itemID, maxWait)
		if err != nil {
			err = interruptCause(ctx, err)
			recordOperation(ctx, cc, history.OpUpload, itemID, outcomeOf(err), detail)
			return err
		}
	}

	recordOperation(ctx, cc, history.OpUpload, itemID, string(state), detail)

	out := uploadOutput{
		ItemID:      itemID,
		CrxVersion:  res.CrxVersion,
		UploadState: string(state),
	}

	if state == store.UploadStateFailed {
		_ = printUploadResult(cc, out)
		return fmt.Errorf("%w: the store rejected %s", errUploadFailed, detail)
	}

	if publish {
		if state != store.UploadStateSucceeded {
			_ = printUploadResult(cc, out)
			return fmt.Errorf("not publishing: upload state is %s", formatState(string(state)))
		}

		pub, err := publishItem(ctx, cc, sess, itemID, store.PublishRequest{PublishType: store.PublishTypeDefault})
		if err != nil {
			return err
		}

		out.Publish = pub
	}

	return printUploadResult(cc, out)
}

func printUploadResult(cc *CLIContext, out uploadOutput) error {
	if cc.Flags.JSON {
		return printJSON(cc.Stdout, out)
	}

	fmt.Fprintf(cc.Stdout, "Item:    %s\n", out.ItemID)

	if out.CrxVersion != "" {
		fmt.Fprintf(cc.Stdout, "Version: %s\n", out.CrxVersion)
	}

	fmt.Fprintf(cc.Stdout, "Upload:  %s\n", formatState(out.UploadState))

	if out.Publish != nil {
		fmt.Fprintf(cc.Stdout, "Publish: %s\n", formatState(out.Publish.State))
	}

	return nil
}
