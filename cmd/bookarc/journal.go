package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/bookarc/internal/journal"
)

var (
	journalLimit int
	journalBook  string
	journalPrune bool
)

func init() {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent archive activity",
		Long: `Lists journal events (archived, discarded, skipped, failed), newest first.

With --prune, removes events older than journal.retention instead.`,
		Args: cobra.NoArgs,
		RunE: runJournalCmd,
	}
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "l", 20, "Number of events to show")
	journalCmd.Flags().StringVar(&journalBook, "book", "", "Show every event for one book")
	journalCmd.Flags().BoolVar(&journalPrune, "prune", false, "Remove events older than the retention period")
	rootCmd.AddCommand(journalCmd)
}

func runJournalCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.journal == nil {
		return errors.New("journal is disabled in the configuration")
	}
	out := cmd.OutOrStdout()

	if journalPrune {
		n, err := a.journal.Prune(a.cfg.Journal.Retention)
		if err != nil {
			return err
		}
		a.log.Info("journal pruned", "removed", n, "retention", a.cfg.Journal.Retention)
		fmt.Fprintf(out, "Removed %d events older than %s\n", n, a.cfg.Journal.Retention)
		return nil
	}

	var entries []journal.Entry
	if journalBook != "" {
		entries, err = a.journal.ForBook(journalBook)
	} else {
		entries, err = a.journal.Recent(journalLimit)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No journal events.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.OccurredAt.Local().Format(time.DateTime),
			string(e.Action),
			truncatePath(e.Book, 50),
			truncatePath(e.Detail, 50),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"WHEN", "ACTION", "BOOK", "DETAIL"}, rows, nil))
	return nil
}
