package workflow

import (
	"errors"

	"github.com/vmunix/bookarc/internal/archive"
	"github.com/vmunix/bookarc/internal/book"
	"github.com/vmunix/bookarc/internal/journal"
	"github.com/vmunix/bookarc/internal/progress"
)

// Report is the outcome of processing one book.
type Report struct {
	Entry    book.Entry      `json:"entry"`
	Progress progress.Data   `json:"progress"`
	Finished bool            `json:"finished"`
	Decision Decision        `json:"-"`
	DryRun   bool            `json:"dry_run,omitempty"`
	Result   *archive.Result `json:"result,omitempty"`
	Recorded bool            `json:"recorded"`
	// Err holds a progress read error or a history log failure.
	Err error `json:"-"`
}

// Action classifies the report for the journal and the summary.
func (r Report) Action() journal.Action {
	switch {
	case r.Decision == DecisionSkip && r.Err != nil:
		return journal.ActionFailed
	case r.Decision == DecisionSkip || r.DryRun:
		return journal.ActionSkipped
	case r.Result == nil || !r.Result.Book.OK():
		return journal.ActionFailed
	case r.Decision == DecisionDiscard:
		return journal.ActionDiscarded
	default:
		return journal.ActionArchived
	}
}

// Errors joins every error attached to the report, including archive failures.
func (r Report) Errors() error {
	errs := []error{r.Err}
	if r.Result != nil {
		errs = append(errs, r.Result.Err())
	}
	return errors.Join(errs...)
}

// Warnings returns orphan-copy warnings from the archive step.
func (r Report) Warnings() error {
	if r.Result == nil {
		return nil
	}
	return r.Result.Warnings()
}

// Summary totals a run.
type Summary struct {
	Scanned   int      `json:"scanned"`
	Archived  int      `json:"archived"`
	Discarded int      `json:"discarded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Warnings  int      `json:"warnings"`
	Reports   []Report `json:"reports"`
}

func (s *Summary) add(r Report) {
	s.Scanned++
	s.Reports = append(s.Reports, r)
	switch r.Action() {
	case journal.ActionArchived:
		s.Archived++
	case journal.ActionDiscarded:
		s.Discarded++
	case journal.ActionFailed:
		s.Failed++
	default:
		s.Skipped++
	}
	if r.Warnings() != nil {
		s.Warnings++
	}
}
