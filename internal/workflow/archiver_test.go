package workflow_test

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/bookarc/internal/archive"
	"github.com/vmunix/bookarc/internal/book"
	"github.com/vmunix/bookarc/internal/history"
	"github.com/vmunix/bookarc/internal/journal"
	"github.com/vmunix/bookarc/internal/progress"
	"github.com/vmunix/bookarc/internal/workflow"
	"github.com/vmunix/bookarc/internal/workflow/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func books(entries ...book.Entry) iter.Seq2[book.Entry, error] {
	return func(yield func(book.Entry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func dirs(paths ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	}
}

var (
	finished   = progress.Data{HasData: true, PercentFinished: ptr(0.95)}
	unfinished = progress.Data{HasData: true, PercentFinished: ptr(0.4), Status: ptr("reading")}
)

type harness struct {
	scanner  *mocks.MockScanner
	reader   *mocks.MockProgressReader
	mover    *mocks.MockRelocator
	history  *mocks.MockRecorder
	journal  *mocks.MockJournal
	decider  *mocks.MockDecider
	settings workflow.Settings
}

func newHarness(t *testing.T) *harness {
	ctrl := gomock.NewController(t)
	return &harness{
		scanner: mocks.NewMockScanner(ctrl),
		reader:  mocks.NewMockProgressReader(ctrl),
		mover:   mocks.NewMockRelocator(ctrl),
		history: mocks.NewMockRecorder(ctrl),
		journal: mocks.NewMockJournal(ctrl),
		decider: mocks.NewMockDecider(ctrl),
		settings: workflow.Settings{
			StartDir:    "/books",
			ArchiveDir:  "/archive",
			HistoryFile: "/archive/read.txt",
		},
	}
}

func (h *harness) archiver(t *testing.T) *workflow.Archiver {
	t.Helper()
	a, err := workflow.New(h.settings, workflow.Deps{
		Scanner: h.scanner,
		Reader:  h.reader,
		Policy:  progress.DefaultPolicy(),
		Mover:   h.mover,
		History: h.history,
		Journal: h.journal,
		Decider: h.decider,
	}, testLogger())
	require.NoError(t, err)
	return a
}

func relocated(e book.Entry) archive.Result {
	return archive.Result{Book: archive.Outcome{
		Source: e.FullPath(), Dest: "/archive/" + e.FileName, Copied: true, Removed: true,
	}}
}

func TestProcess_AutoArchivesFinishedBook(t *testing.T) {
	h := newHarness(t)
	e := book.NewEntry("/books", "Dune.epub")

	h.reader.EXPECT().Read(e).Return(finished, nil)
	h.mover.EXPECT().RelocateWithProgressStore(e, "/archive").Return(relocated(e))
	h.history.EXPECT().Record("Dune.epub").Return(nil)
	h.journal.EXPECT().Append(gomock.Any()).DoAndReturn(func(je journal.Entry) (int64, error) {
		assert.Equal(t, journal.ActionArchived, je.Action)
		assert.Equal(t, "Dune.epub", je.Book)
		assert.Equal(t, "/archive/Dune.epub", je.Dest)
		assert.Empty(t, je.Detail)
		return 1, nil
	})

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.True(t, rep.Finished)
	assert.True(t, rep.Recorded)
	assert.Equal(t, workflow.DecisionArchive, rep.Decision)
	assert.Equal(t, journal.ActionArchived, rep.Action())
}

func TestProcess_AutoLeavesUnfinishedBook(t *testing.T) {
	h := newHarness(t)
	e := book.NewEntry("/books", "Emma.fb2")

	h.reader.EXPECT().Read(e).Return(unfinished, nil)
	h.journal.EXPECT().Append(gomock.Any()).DoAndReturn(func(je journal.Entry) (int64, error) {
		assert.Equal(t, journal.ActionSkipped, je.Action)
		return 1, nil
	})

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.False(t, rep.Finished)
	assert.Nil(t, rep.Result)
	assert.Equal(t, journal.ActionSkipped, rep.Action())
}

func TestProcess_AutoCorruptSidecarSkipsWithError(t *testing.T) {
	h := newHarness(t)
	e := book.NewEntry("/books", "Odd.pdf")
	corrupt := errors.New("two metadata files")

	h.reader.EXPECT().Read(e).Return(progress.Data{}, corrupt)
	h.journal.EXPECT().Append(gomock.Any()).DoAndReturn(func(je journal.Entry) (int64, error) {
		assert.Equal(t, journal.ActionFailed, je.Action)
		assert.Contains(t, je.Detail, "two metadata files")
		return 1, nil
	})

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.ErrorIs(t, rep.Err, corrupt)
	assert.Equal(t, workflow.DecisionSkip, rep.Decision)
	assert.Equal(t, journal.ActionFailed, rep.Action())
}

func TestProcess_CopyFailureIsNotRecorded(t *testing.T) {
	h := newHarness(t)
	e := book.NewEntry("/books", "Dune.epub")

	h.reader.EXPECT().Read(e).Return(finished, nil)
	h.mover.EXPECT().RelocateWithProgressStore(e, "/archive").Return(archive.Result{
		Book: archive.Outcome{Source: e.FullPath(), Err: archive.ErrCopyFailed},
	})
	h.journal.EXPECT().Append(gomock.Any()).Return(int64(1), nil)

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.False(t, rep.Recorded)
	assert.Equal(t, journal.ActionFailed, rep.Action())
	assert.ErrorIs(t, rep.Errors(), archive.ErrCopyFailed)
}

func TestProcess_SidecarFailureStillRecordsBook(t *testing.T) {
	h := newHarness(t)
	e := book.NewEntry("/books", "Dune.epub")
	res := relocated(e)
	res.Sidecar = &archive.Outcome{Source: e.ProgressStorePath(), Err: archive.ErrCopyFailed}

	h.reader.EXPECT().Read(e).Return(finished, nil)
	h.mover.EXPECT().RelocateWithProgressStore(e, "/archive").Return(res)
	h.history.EXPECT().Record("Dune.epub").Return(nil)
	h.journal.EXPECT().Append(gomock.Any()).Return(int64(1), nil)

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.True(t, rep.Recorded)
	assert.Equal(t, journal.ActionArchived, rep.Action())
	assert.ErrorIs(t, rep.Errors(), archive.ErrCopyFailed)
}

func TestProcess_HistoryFailureIsReported(t *testing.T) {
	h := newHarness(t)
	e := book.NewEntry("/books", "Dune.epub")

	h.reader.EXPECT().Read(e).Return(finished, nil)
	h.mover.EXPECT().RelocateWithProgressStore(e, "/archive").Return(relocated(e))
	h.history.EXPECT().Record("Dune.epub").Return(history.ErrLogUnavailable)
	h.journal.EXPECT().Append(gomock.Any()).Return(int64(1), nil)

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.False(t, rep.Recorded)
	assert.ErrorIs(t, rep.Err, history.ErrLogUnavailable)
}

func TestProcess_JournalFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	e := book.NewEntry("/books", "Emma.fb2")

	h.reader.EXPECT().Read(e).Return(unfinished, nil)
	h.journal.EXPECT().Append(gomock.Any()).Return(int64(0), errors.New("database is locked"))

	_, err := h.archiver(t).Process(context.Background(), e)
	assert.NoError(t, err)
}

func TestProcess_ManualDiscard(t *testing.T) {
	h := newHarness(t)
	h.settings.Mode = workflow.ModeManual
	e := book.NewEntry("/books", "Dull.pdf")

	h.reader.EXPECT().Read(e).Return(unfinished, nil)
	h.decider.EXPECT().Decide(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, c workflow.Candidate) (workflow.Decision, error) {
			assert.Equal(t, e, c.Entry)
			assert.False(t, c.Finished)
			return workflow.DecisionDiscard, nil
		})
	h.mover.EXPECT().Discard(e).Return(archive.Result{Book: archive.Outcome{Source: e.FullPath(), Removed: true}})
	h.journal.EXPECT().Append(gomock.Any()).DoAndReturn(func(je journal.Entry) (int64, error) {
		assert.Equal(t, journal.ActionDiscarded, je.Action)
		return 1, nil
	})

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.Equal(t, journal.ActionDiscarded, rep.Action())
	assert.False(t, rep.Recorded)
}

func TestProcess_ManualArchiveUnfinishedBook(t *testing.T) {
	h := newHarness(t)
	h.settings.Mode = workflow.ModeManual
	e := book.NewEntry("/books", "Emma.fb2")

	h.reader.EXPECT().Read(e).Return(unfinished, nil)
	h.decider.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(workflow.DecisionArchive, nil)
	h.mover.EXPECT().RelocateWithProgressStore(e, "/archive").Return(relocated(e))
	h.history.EXPECT().Record("Emma.fb2").Return(nil)
	h.journal.EXPECT().Append(gomock.Any()).Return(int64(1), nil)

	rep, err := h.archiver(t).Process(context.Background(), e)

	require.NoError(t, err)
	assert.True(t, rep.Recorded)
}

func TestRun_PreflightFailureMovesNothing(t *testing.T) {
	h := newHarness(t)
	h.history.EXPECT().Check().Return(history.ErrLogUnavailable)

	_, err := h.archiver(t).Run(context.Background())

	assert.ErrorIs(t, err, history.ErrLogUnavailable)
}

func TestRun_RecursiveSkipsArchiveDir(t *testing.T) {
	h := newHarness(t)
	h.settings.Recursive = true
	a1 := book.NewEntry("/books", "a.epub")
	b1 := book.NewEntry("/books/scifi", "b.epub")

	h.history.EXPECT().Check().Return(nil)
	h.scanner.EXPECT().Scan("/books").Return(books(a1))
	h.scanner.EXPECT().Dirs("/books").Return(dirs("/books/scifi", "/archive"))
	h.scanner.EXPECT().Scan("/books/scifi").Return(books(b1))
	h.scanner.EXPECT().Dirs("/books/scifi").Return(dirs())
	h.reader.EXPECT().Read(a1).Return(finished, nil)
	h.reader.EXPECT().Read(b1).Return(unfinished, nil)
	h.mover.EXPECT().RelocateWithProgressStore(a1, "/archive").Return(relocated(a1))
	h.history.EXPECT().Record("a.epub").Return(nil)
	h.journal.EXPECT().Append(gomock.Any()).Return(int64(1), nil).Times(2)

	sum, err := h.archiver(t).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, sum.Scanned)
	assert.Equal(t, 1, sum.Archived)
	assert.Equal(t, 1, sum.Skipped)
	assert.Len(t, sum.Reports, 2)
}

func TestRun_NonRecursiveIgnoresSubdirectories(t *testing.T) {
	h := newHarness(t)
	h.history.EXPECT().Check().Return(nil)
	h.scanner.EXPECT().Scan("/books").Return(books())

	sum, err := h.archiver(t).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sum.Scanned)
}

func TestRun_DryRunMutatesNothing(t *testing.T) {
	h := newHarness(t)
	h.settings.DryRun = true
	e := book.NewEntry("/books", "Dune.epub")

	h.scanner.EXPECT().Scan("/books").Return(books(e))
	h.reader.EXPECT().Read(e).Return(finished, nil)

	sum, err := h.archiver(t).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, sum.Reports, 1)
	assert.True(t, sum.Reports[0].DryRun)
	assert.Equal(t, workflow.DecisionArchive, sum.Reports[0].Decision)
	assert.Equal(t, 1, sum.Skipped)
}

func TestRun_CancelledBetweenBooks(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	a1 := book.NewEntry("/books", "a.epub")
	b1 := book.NewEntry("/books", "b.epub")

	h.history.EXPECT().Check().Return(nil)
	h.scanner.EXPECT().Scan("/books").Return(books(a1, b1))
	h.reader.EXPECT().Read(a1).DoAndReturn(func(book.Entry) (progress.Data, error) {
		cancel()
		return unfinished, nil
	})
	h.journal.EXPECT().Append(gomock.Any()).Return(int64(1), nil)

	sum, err := h.archiver(t).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Scanned)
}

func TestRun_DeciderQuitStopsCleanly(t *testing.T) {
	h := newHarness(t)
	h.settings.Mode = workflow.ModeManual
	a1 := book.NewEntry("/books", "a.epub")
	b1 := book.NewEntry("/books", "b.epub")

	h.history.EXPECT().Check().Return(nil)
	h.scanner.EXPECT().Scan("/books").Return(books(a1, b1))
	h.reader.EXPECT().Read(a1).Return(unfinished, nil)
	h.decider.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(workflow.DecisionSkip, workflow.ErrQuit)

	sum, err := h.archiver(t).Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sum.Scanned)
}

func TestRun_ScanErrorAtTopIsFatal(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("permission denied")
	h.history.EXPECT().Check().Return(nil)
	h.scanner.EXPECT().Scan("/books").Return(iter.Seq2[book.Entry, error](func(yield func(book.Entry, error) bool) {
		yield(book.Entry{}, boom)
	}))

	_, err := h.archiver(t).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "auto", workflow.ModeAuto.String())
	assert.Equal(t, "manual", workflow.ModeManual.String())
	assert.Equal(t, "archive", workflow.DecisionArchive.String())
	assert.Equal(t, "discard", workflow.DecisionDiscard.String())
	assert.Equal(t, "skip", workflow.DecisionSkip.String())
}

func TestNew_Validation(t *testing.T) {
	_, err := workflow.New(workflow.Settings{Mode: workflow.ModeManual}, workflow.Deps{}, testLogger())
	assert.ErrorIs(t, err, workflow.ErrNoDecider)

	_, err = workflow.New(workflow.Settings{StartDir: "/archive/", ArchiveDir: "/archive"}, workflow.Deps{}, testLogger())
	assert.ErrorIs(t, err, workflow.ErrStartIsArchive)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    workflow.Mode
		wantErr bool
	}{
		{"auto", workflow.ModeAuto, false},
		{"", workflow.ModeAuto, false},
		{"Manual", workflow.ModeManual, false},
		{"semi", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := workflow.ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, workflow.ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
