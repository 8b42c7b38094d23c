package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/webstore-go/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent operations recorded in the local journal",
		Long: `List uploads, publishes, cancellations and rollout changes made from
this machine, newest first. By default only the selected item is shown.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", history.DefaultListLimit, "maximum number of entries")
	cmd.Flags().Bool("all", false, "show entries for every item")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if !cc.Cfg.History {
		return errors.New("history is disabled: set history = true in the config file")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	all, _ := cmd.Flags().GetBool("all")

	var itemID string

	if !all {
		id, err := requireItem(cc)
		if err != nil {
			return err
		}

		itemID = id
	}

	j, err := history.Open(cmd.Context(), cc.Cfg.HistoryFile, cc.Logger)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List(cmd.Context(), itemID, limit)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		if entries == nil {
			entries = []history.Entry{}
		}

		return printJSON(cc.Stdout, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cc.Stdout, "No operations recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			formatTime(e.RecordedAt),
			e.ItemID,
			e.Operation,
			formatState(e.Outcome),
			e.Detail,
		})
	}

	printTable(cc.Stdout, []string{"TIME", "ITEM", "OPERATION", "OUTCOME", "DETAIL"}, rows)

	return nil
}
