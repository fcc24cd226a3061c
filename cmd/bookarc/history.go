package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/bookarc/internal/history"
)

var (
	historyListLimit int
	historyAddDate   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the read-history log",
}

func init() {
	findCmd := &cobra.Command{
		Use:   "find <text>",
		Short: "Check whether a title was already read",
		Long:  "Searches the log for text. Without an exact hit, similar titles are suggested.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runHistoryFind,
	}
	dupsCmd := &cobra.Command{
		Use:   "dups",
		Short: "Report lines recorded more than once",
		Args:  cobra.NoArgs,
		RunE:  runHistoryDups,
	}
	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Count recorded books",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCount,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded books, newest last",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	listCmd.Flags().IntVarP(&historyListLimit, "limit", "l", 0, "Show only the last N records")

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Record a book by hand",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runHistoryAdd,
	}
	addCmd.Flags().StringVar(&historyAddDate, "date", "", "Date to record (default: today)")

	historyCmd.AddCommand(findCmd, dupsCmd, countCmd, listCmd, addCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*history.Log, error) {
	a, err := openApp(false)
	if err != nil {
		return nil, err
	}
	return a.history, nil
}

type findResult struct {
	Query       string          `json:"query"`
	Found       bool            `json:"found"`
	Suggestions []history.Match `json:"suggestions,omitempty"`
}

func runHistoryFind(cmd *cobra.Command, args []string) error {
	log, err := openHistory()
	if err != nil {
		return err
	}

	query := strings.Join(args, " ")
	res := findResult{Query: query}
	res.Found, err = log.Find(query)
	if err != nil {
		return err
	}
	if !res.Found {
		res.Suggestions, err = log.Suggest(query, 5)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, res)
	}

	if res.Found {
		fmt.Fprintf(out, "Already read: %q\n", query)
		return nil
	}
	fmt.Fprintf(out, "Not found: %q\n", query)
	if len(res.Suggestions) > 0 {
		fmt.Fprintln(out, "\nDid you mean:")
		for _, m := range res.Suggestions {
			fmt.Fprintf(out, "  %s  (%s, %.0f%%)\n", m.Entry.Name, m.Confidence, m.Score*100)
		}
	}
	return nil
}

func runHistoryDups(cmd *cobra.Command, args []string) error {
	log, err := openHistory()
	if err != nil {
		return err
	}

	dups, err := log.FindDuplicates()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, dups)
	}
	if len(dups) == 0 {
		fmt.Fprintln(out, "No duplicates.")
		return nil
	}

	lines := make([]string, 0, len(dups))
	for line := range dups {
		lines = append(lines, line)
	}
	sort.Strings(lines)

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, []string{fmt.Sprint(dups[line]), line})
	}
	fmt.Fprintln(out, renderTable([]string{"COUNT", "LINE"}, rows, []columnAlignment{alignRight, alignLeft}))
	return nil
}

func runHistoryCount(cmd *cobra.Command, args []string) error {
	log, err := openHistory()
	if err != nil {
		return err
	}

	n, err := log.Count()
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]int{"count": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d books read\n", n)
	return nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	log, err := openHistory()
	if err != nil {
		return err
	}

	entries, err := log.Entries()
	if err != nil {
		return err
	}
	if historyListLimit > 0 && len(entries) > historyListLimit {
		entries = entries[len(entries)-historyListLimit:]
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if entries == nil {
			entries = []history.Entry{}
		}
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No books recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Date, e.Name})
	}
	fmt.Fprintln(out, renderTable([]string{"DATE", "BOOK"}, rows, nil))
	return nil
}

func runHistoryAdd(cmd *cobra.Command, args []string) error {
	log, err := openHistory()
	if err != nil {
		return err
	}

	name := strings.Join(args, " ")
	if historyAddDate != "" {
		err = log.Append(name, historyAddDate)
	} else {
		err = log.Record(name)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %q\n", history.DisplayName(name))
	return nil
}
