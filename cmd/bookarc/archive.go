package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/bookarc/internal/workflow"
)

var (
	archiveDryRun    bool
	archiveManual    bool
	archiveRecursive bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive [dir]",
	Short: "Move finished books into the archive",
	Long: `Scan the start directory (or dir) and archive finished books.

In auto mode every book whose sidecar reports it finished is moved, together
with its .sdr sidecar, into the archive directory and recorded in the
read-history log. In manual mode you are asked about each book.

Examples:
  bookarc archive                 # auto mode, configured start_dir
  bookarc archive --dry-run       # report what would move
  bookarc archive --manual ~/Inbox`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArchive,
}

func init() {
	archiveCmd.Flags().BoolVarP(&archiveDryRun, "dry-run", "n", false, "Report decisions without moving anything")
	archiveCmd.Flags().BoolVarP(&archiveManual, "manual", "m", false, "Ask about each book")
	archiveCmd.Flags().BoolVarP(&archiveRecursive, "recursive", "r", false, "Descend into subdirectories")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	settings, err := a.settings()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		settings.StartDir = args[0]
	}
	if archiveManual {
		settings.Mode = workflow.ModeManual
	}
	if archiveRecursive {
		settings.Recursive = true
	}
	settings.DryRun = archiveDryRun

	var decider workflow.Decider
	if settings.Mode == workflow.ModeManual {
		decider = newPromptDecider(cmd.InOrStdin(), cmd.OutOrStdout())
	}

	arc, err := a.archiver(settings, decider)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := arc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), summaryView(sum))
	}
	printSummary(cmd.OutOrStdout(), sum)
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted")
	}
	return nil
}

type reportView struct {
	Book     string   `json:"book"`
	Action   string   `json:"action"`
	Percent  *float64 `json:"percent_finished,omitempty"`
	Finished bool     `json:"finished"`
	Dest     string   `json:"dest,omitempty"`
	Recorded bool     `json:"recorded"`
	Error    string   `json:"error,omitempty"`
	Warning  string   `json:"warning,omitempty"`
}

type runView struct {
	workflow.Summary
	Reports []reportView `json:"reports"`
}

func summaryView(sum workflow.Summary) runView {
	v := runView{Summary: sum, Reports: make([]reportView, 0, len(sum.Reports))}
	for _, r := range sum.Reports {
		rv := reportView{
			Book:     r.Entry.FileName,
			Action:   string(r.Action()),
			Percent:  r.Progress.PercentFinished,
			Finished: r.Finished,
			Recorded: r.Recorded,
		}
		if r.Result != nil {
			rv.Dest = r.Result.Book.Dest
		}
		if err := r.Errors(); err != nil {
			rv.Error = err.Error()
		}
		if w := r.Warnings(); w != nil {
			rv.Warning = w.Error()
		}
		v.Reports = append(v.Reports, rv)
	}
	return v
}

func printSummary(w io.Writer, sum workflow.Summary) {
	if len(sum.Reports) > 0 {
		rows := make([][]string, 0, len(sum.Reports))
		for _, r := range sum.Reports {
			note := ""
			if err := r.Errors(); err != nil {
				note = err.Error()
			} else if warn := r.Warnings(); warn != nil {
				note = warn.Error()
			}
			rows = append(rows, []string{
				truncatePath(r.Entry.FileName, 50),
				formatPercent(r.Progress),
				string(r.Action()),
				truncatePath(note, 60),
			})
		}
		fmt.Fprintln(w, renderTable([]string{"BOOK", "READ", "ACTION", "NOTE"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))
	}
	fmt.Fprintf(w, "Scanned %d: %d archived, %d discarded, %d skipped, %d failed",
		sum.Scanned, sum.Archived, sum.Discarded, sum.Skipped, sum.Failed)
	if sum.Warnings > 0 {
		fmt.Fprintf(w, " (%d warnings)", sum.Warnings)
	}
	fmt.Fprintln(w)
}

// promptDecider asks on w and reads answers from r.
type promptDecider struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptDecider(r io.Reader, w io.Writer) *promptDecider {
	return &promptDecider{in: bufio.NewReader(r), out: w}
}

func (p *promptDecider) Decide(ctx context.Context, c workflow.Candidate) (workflow.Decision, error) {
	def := workflow.DecisionSkip
	if c.Finished {
		def = workflow.DecisionArchive
	}

	fmt.Fprintf(p.out, "\n%s\n", c.Entry.FileName)
	switch {
	case c.Err != nil:
		fmt.Fprintf(p.out, "  progress: unreadable (%v)\n", c.Err)
	case !c.Progress.HasData:
		fmt.Fprintln(p.out, "  progress: never opened")
	default:
		fmt.Fprintf(p.out, "  progress: %s, status %s\n", formatPercent(c.Progress), formatStatus(c.Progress))
	}

	for {
		if err := ctx.Err(); err != nil {
			return workflow.DecisionSkip, err
		}
		fmt.Fprintf(p.out, "[a]rchive, [d]iscard, [s]kip, [q]uit [%s]: ", def)
		line, err := p.in.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return workflow.DecisionSkip, err
			}
			if strings.TrimSpace(line) == "" {
				return workflow.DecisionSkip, workflow.ErrQuit
			}
		}

		d, ok, quit := parseAnswer(line, def)
		if quit {
			return workflow.DecisionSkip, workflow.ErrQuit
		}
		if ok {
			return d, nil
		}
		fmt.Fprintln(p.out, "  please answer a, d, s or q")
	}
}

func parseAnswer(line string, def workflow.Decision) (d workflow.Decision, ok, quit bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, true, false
	case "a", "archive", "y", "yes":
		return workflow.DecisionArchive, true, false
	case "d", "discard", "delete":
		return workflow.DecisionDiscard, true, false
	case "s", "skip", "n", "no":
		return workflow.DecisionSkip, true, false
	case "q", "quit":
		return workflow.DecisionSkip, false, true
	default:
		return workflow.DecisionSkip, false, false
	}
}
