package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/bookarc/internal/book"
	"github.com/vmunix/bookarc/internal/workflow"
)

func init() {
	browseCmd := &cobra.Command{
		Use:   "browse [dir]",
		Short: "Interactive menu over the library",
		Long:  "Walk directories, list books, and archive or discard individual books from a menu.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBrowseCmd,
	}
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := a.cfg.Library.StartDir
	if len(args) > 0 {
		dir = args[0]
	}
	return newBrowser(a, dir, cmd.InOrStdin(), cmd.OutOrStdout()).run(cmd.Context())
}

type browser struct {
	app *app
	dir string
	in  *bufio.Reader
	out io.Writer
}

func newBrowser(a *app, dir string, r io.Reader, w io.Writer) *browser {
	abs, err := filepath.Abs(dir)
	if err == nil {
		dir = abs
	}
	return &browser{app: a, dir: dir, in: bufio.NewReader(r), out: w}
}

const browseMenu = `
 1) list books
 2) open subdirectory
 3) up one level
 4) archive a book
 5) discard a book
 6) book status
 q) quit`

func (b *browser) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		fmt.Fprintf(b.out, "\n%s\n%s\n", b.dir, browseMenu)
		choice, err := b.prompt("> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			err = listBooks(b.out, b.app, b.dir)
		case "2":
			err = b.enter()
		case "3":
			b.dir = filepath.Dir(b.dir)
		case "4":
			err = b.act(ctx, workflow.DecisionArchive)
		case "5":
			err = b.act(ctx, workflow.DecisionDiscard)
		case "6":
			err = b.status()
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(b.out, "unknown choice")
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(b.out, "error: %v\n", err)
		}
	}
}

// prompt reads one trimmed line. A final line without a newline is returned
// before io.EOF is reported on the next call.
func (b *browser) prompt(label string) (string, error) {
	fmt.Fprint(b.out, label)
	line, err := b.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (b *browser) enter() error {
	var dirs []string
	for d, err := range b.app.scanner.Dirs(b.dir) {
		if err != nil {
			return err
		}
		dirs = append(dirs, d)
	}
	if len(dirs) == 0 {
		fmt.Fprintln(b.out, "no subdirectories")
		return nil
	}

	for i, d := range dirs {
		fmt.Fprintf(b.out, "%3d) %s\n", i+1, filepath.Base(d))
	}
	i, err := b.pick(len(dirs))
	if err != nil || i < 0 {
		return err
	}
	b.dir = dirs[i]
	return nil
}

// chooseBook lists the books in the current directory and asks for one.
func (b *browser) chooseBook() (book.Entry, bool, error) {
	books, err := b.app.scanner.Books(b.dir)
	if err != nil {
		return book.Entry{}, false, err
	}
	if len(books) == 0 {
		fmt.Fprintln(b.out, "no books here")
		return book.Entry{}, false, nil
	}

	for i, e := range books {
		fmt.Fprintf(b.out, "%3d) %s\n", i+1, e.FileName)
	}
	i, err := b.pick(len(books))
	if err != nil || i < 0 {
		return book.Entry{}, false, err
	}
	return books[i], true, nil
}

// pick asks for a 1-based index and returns it 0-based, or -1 on a blank answer.
func (b *browser) pick(n int) (int, error) {
	for {
		answer, err := b.prompt("number (blank to cancel): ")
		if err != nil {
			return -1, err
		}
		if answer == "" {
			return -1, nil
		}
		i, err := strconv.Atoi(answer)
		if err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		fmt.Fprintf(b.out, "enter 1-%d\n", n)
	}
}

func (b *browser) act(ctx context.Context, d workflow.Decision) error {
	e, ok, err := b.chooseBook()
	if err != nil || !ok {
		return err
	}

	if d == workflow.DecisionDiscard {
		answer, err := b.prompt(fmt.Sprintf("delete %s without archiving? [y/N]: ", e.FileName))
		if err != nil {
			return err
		}
		if a := strings.ToLower(answer); a != "y" && a != "yes" {
			return nil
		}
	} else if err := b.app.history.Check(); err != nil {
		return err
	}

	settings, err := b.app.settings()
	if err != nil {
		return err
	}
	settings.StartDir = b.dir
	settings.Mode = workflow.ModeManual

	decide := workflow.DeciderFunc(func(context.Context, workflow.Candidate) (workflow.Decision, error) {
		return d, nil
	})
	arc, err := b.app.archiver(settings, decide)
	if err != nil {
		return err
	}

	rep, err := arc.Process(ctx, e)
	if err != nil {
		return err
	}
	if err := rep.Errors(); err != nil {
		return err
	}
	fmt.Fprintf(b.out, "%s: %s\n", e.FileName, rep.Action())
	if w := rep.Warnings(); w != nil {
		fmt.Fprintf(b.out, "warning: %v\n", w)
	}
	return nil
}

func (b *browser) status() error {
	e, ok, err := b.chooseBook()
	if err != nil || !ok {
		return err
	}
	rows, err := collectBooks(b.app, b.dir)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Name != e.FileName {
			continue
		}
		fmt.Fprintf(b.out, "%s: read %s, status %s, finished %t\n",
			r.Name, formatPercent(r.Progress), formatStatus(r.Progress), r.Finished)
		if r.Error != "" {
			fmt.Fprintf(b.out, "  %s\n", r.Error)
		}
	}
	return nil
}
