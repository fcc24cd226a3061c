package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vmunix/bookarc/internal/book"
	"github.com/vmunix/bookarc/internal/progress"
)

var statusRaw bool

func init() {
	scanCmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "List books and their reading progress",
		Long:  "Lists the books directly inside dir (default: the configured start_dir) with progress read from each sidecar.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScanCmd,
	}

	shelfCmd := &cobra.Command{
		Use:   "shelf",
		Short: "List books already in the archive",
		Args:  cobra.NoArgs,
		RunE:  runShelfCmd,
	}

	statusCmd := &cobra.Command{
		Use:   "status <book>",
		Short: "Show a book's progress",
		Long: `Show the progress recorded in a book's sidecar.

With --raw, prints the metadata file lines after the two-line header.`,
		Args: cobra.ExactArgs(1),
		RunE: runStatusCmd,
	}
	statusCmd.Flags().BoolVar(&statusRaw, "raw", false, "Print the raw metadata lines")

	rootCmd.AddCommand(scanCmd, shelfCmd, statusCmd)
}

// bookRow is one line of a book listing.
type bookRow struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Progress progress.Data `json:"progress"`
	Finished bool          `json:"finished"`
	Error    string        `json:"error,omitempty"`
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.cfg.Library.StartDir
	if len(args) > 0 {
		dir = args[0]
	}
	return listBooks(cmd.OutOrStdout(), a, dir)
}

func runShelfCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	return listBooks(cmd.OutOrStdout(), a, a.cfg.Library.ArchiveDir)
}

func collectBooks(a *app, dir string) ([]bookRow, error) {
	policy := a.policy()
	var rows []bookRow
	for e, err := range a.scanner.Scan(dir) {
		if err != nil {
			return rows, err
		}
		data, readErr := progress.Read(e)
		row := bookRow{
			Name:     e.FileName,
			Path:     e.FullPath(),
			Progress: data,
			Finished: readErr == nil && policy.IsFinished(data),
		}
		if readErr != nil {
			row.Error = readErr.Error()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func listBooks(w io.Writer, a *app, dir string) error {
	rows, err := collectBooks(a, dir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}

	if jsonOutput {
		if rows == nil {
			rows = []bookRow{}
		}
		return printJSON(w, rows)
	}

	if len(rows) == 0 {
		fmt.Fprintf(w, "No books in %s.\n", dir)
		return nil
	}

	table := make([][]string, 0, len(rows))
	for i, r := range rows {
		finished := ""
		switch {
		case r.Error != "":
			finished = "corrupt"
		case r.Finished:
			finished = "yes"
		}
		table = append(table, []string{
			fmt.Sprint(i + 1),
			truncatePath(r.Name, 60),
			formatPercent(r.Progress),
			formatStatus(r.Progress),
			finished,
		})
	}
	fmt.Fprintf(w, "Books in %s (%d):\n", dir, len(rows))
	fmt.Fprintln(w, renderTable([]string{"#", "BOOK", "READ", "STATUS", "FINISHED"}, table,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft}))
	return nil
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	e := resolveBook(a.cfg.Library.StartDir, args[0])
	out := cmd.OutOrStdout()

	if statusRaw {
		lines, err := progress.ReadLines(e)
		if err != nil {
			return err
		}
		if lines == nil {
			fmt.Fprintf(out, "%s has no progress data.\n", e.FileName)
			return nil
		}
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
		return nil
	}

	data, err := progress.Read(e)
	if err != nil {
		return err
	}
	row := bookRow{
		Name:     e.FileName,
		Path:     e.FullPath(),
		Progress: data,
		Finished: a.policy().IsFinished(data),
	}
	if jsonOutput {
		return printJSON(out, row)
	}

	fmt.Fprintf(out, "Book:     %s\n", row.Name)
	fmt.Fprintf(out, "Sidecar:  %s\n", e.ProgressStorePath())
	if !data.HasData {
		fmt.Fprintln(out, "Progress: never opened")
		return nil
	}
	fmt.Fprintf(out, "Read:     %s\n", formatPercent(data))
	fmt.Fprintf(out, "Status:   %s\n", formatStatus(data))
	fmt.Fprintf(out, "Finished: %t\n", row.Finished)
	return nil
}

// resolveBook treats a bare file name as relative to dir.
func resolveBook(dir, arg string) book.Entry {
	if filepath.Base(arg) == arg {
		return book.NewEntry(dir, arg)
	}
	return book.FromPath(arg)
}
