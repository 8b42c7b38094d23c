package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/store"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the review and rollout state of the selected item",
		Long: `Fetch the selected item's status: the published revision, the revision
under review, rollout percentages, and the state of the last upload.

With --watch, status is fetched repeatedly until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}

	cmd.Flags().Bool("watch", false, "keep fetching status until interrupted")
	cmd.Flags().Duration("interval", 0, "time between fetches in --watch mode (default from config watch_interval)")

	return cmd
}

// statusOutput is the JSON schema for `status --json`. In --watch mode one
// object is printed per fetch.
type statusOutput struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name,omitempty"`
	PublicKey   string          `json:"public_key,omitempty"`
	Published   *revisionOutput `json:"published,omitempty"`
	Submitted   *revisionOutput `json:"submitted,omitempty"`
	UploadState string          `json:"upload_state,omitempty"`
	Warned      bool            `json:"warned"`
	TakenDown   bool            `json:"taken_down"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

type revisionOutput struct {
	State    string          `json:"state"`
	Channels []channelOutput `json:"channels,omitempty"`
}

type channelOutput struct {
	CrxVersion       string `json:"crx_version"`
	DeployPercentage int    `json:"deploy_percentage"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	itemID, err := requireItem(cc)
	if err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")

	interval := cc.Cfg.WatchInterval
	if cmd.Flags().Changed("interval") {
		interval, _ = cmd.Flags().GetDuration("interval")
	}

	if watch {
		if err := store.ValidateWatchInterval(interval); err != nil {
			return err
		}
	}

	sess, err := newStoreSession(cc)
	if err != nil {
		return err
	}

	if !watch {
		status, err := sess.Client.FetchStatus(cmd.Context(), itemID)
		if err != nil {
			return err
		}

		return printStatus(cc, newStatusOutput(itemID, status, time.Now()))
	}

	cc.Statusf("Watching %s every %s. Press Ctrl-C to stop.\n", itemID, interval)

	ctx, stop := interruptible(cmd.Context(), cc, "the status watch")
	defer stop()

	return sess.Poller.Watch(ctx, itemID, interval, func(status *store.ItemStatus) error {
		if !cc.Flags.JSON {
			fmt.Fprintln(cc.Stdout)
		}

		return printStatus(cc, newStatusOutput(itemID, status, time.Now()))
	})
}

func newStatusOutput(itemID string, s *store.ItemStatus, fetchedAt time.Time) statusOutput {
	out := statusOutput{
		ItemID:      s.ItemID,
		Name:        s.Name,
		PublicKey:   s.PublicKey,
		Published:   newRevisionOutput(s.PublishedRevision),
		Submitted:   newRevisionOutput(s.SubmittedRevision),
		UploadState: string(s.LastAsyncUploadState),
		Warned:      s.Warned,
		TakenDown:   s.TakenDown,
		FetchedAt:   fetchedAt.UTC(),
	}

	if out.ItemID == "" {
		out.ItemID = itemID
	}

	return out
}

func newRevisionOutput(r *store.RevisionStatus) *revisionOutput {
	if r == nil {
		return nil
	}

	out := &revisionOutput{State: string(r.State)}
	for _, ch := range r.DistributionChannels {
		out.Channels = append(out.Channels, channelOutput{
			CrxVersion:       ch.CrxVersion,
			DeployPercentage: ch.DeployPercentage,
		})
	}

	return out
}

func printStatus(cc *CLIContext, out statusOutput) error {
	if cc.Flags.JSON {
		return printJSON(cc.Stdout, out)
	}

	printStatusText(cc.Stdout, out)

	return nil
}

func printStatusText(w io.Writer, out statusOutput) {
	fmt.Fprintf(w, "Item:      %s\n", out.ItemID)
	fmt.Fprintf(w, "Fetched:   %s\n", formatTime(out.FetchedAt.Local()))
	fmt.Fprintf(w, "Upload:    %s\n", formatState(out.UploadState))

	if out.Warned {
		fmt.Fprintln(w, "Warning:   the item has a policy warning")
	}

	if out.TakenDown {
		fmt.Fprintln(w, "Warning:   the item has been taken down")
	}

	rows := make([][]string, 0, 2)
	rows = append(rows, revisionRows("published", out.Published)...)
	rows = append(rows, revisionRows("submitted", out.Submitted)...)

	if len(rows) == 0 {
		fmt.Fprintln(w, "No published or submitted revisions.")
		return
	}

	fmt.Fprintln(w)
	printTable(w, []string{"REVISION", "STATE", "VERSION", "ROLLOUT"}, rows)
}

// revisionRows renders one row per distribution channel, or a single row
// when the revision has none.
func revisionRows(label string, r *revisionOutput) [][]string {
	if r == nil {
		return nil
	}

	if len(r.Channels) == 0 {
		return [][]string{{label, formatState(r.State), "-", "-"}}
	}

	rows := make([][]string, 0, len(r.Channels))
	for _, ch := range r.Channels {
		rows = append(rows, []string{
			label,
			formatState(r.State),
			ch.CrxVersion,
			strconv.Itoa(ch.DeployPercentage) + "%",
		})
	}

	return rows
}
