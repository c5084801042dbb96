package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readlist/internal/sheet"
	"readlist/pkg/models"
)

var today = time.Date(2024, time.May, 6, 21, 30, 0, 0, time.UTC)

type fakeRecorder struct {
	entries []models.ProgressEntry
	err     error
}

func (r *fakeRecorder) Add(_ context.Context, e models.ProgressEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

type published struct {
	action models.Action
	book   models.Book
}

type fakePublisher struct {
	events []published
}

func (p *fakePublisher) PublishBook(action models.Action, b models.Book) {
	p.events = append(p.events, published{action, b})
}

func newController(t *testing.T, rows ...[]string) (*Controller, *sheet.Memory) {
	t.Helper()
	m := sheet.NewMemory(rows...)
	return New(m, WithClock(func() time.Time { return today })), m
}

func mustLookup(t *testing.T, c *Controller, title string) models.Book {
	t.Helper()
	b, err := c.Lookup(context.Background(), title)
	require.NoError(t, err)
	return b
}

func TestAddBook_NewRowState(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)

	b, err := c.AddBook(ctx, "  T ", "A", 300)
	require.NoError(t, err)
	assert.Equal(t, models.Book{Row: 2, Title: "T", Author: "A", Progress: 0, Total: 300, Status: models.StatusReading}, b)
	assert.Equal(t, b, mustLookup(t, c, "T"))
	assert.True(t, b.Valid())
}

func TestAddBook_Validation(t *testing.T) {
	ctx := context.Background()
	c, m := newController(t, []string{"Dune", "Herbert", "0", "412", "reading", ""})
	strict := New(m, WithAllowEmptyAuthor(false))

	tests := []struct {
		name   string
		c      *Controller
		title  string
		author string
		total  int
		want   error
	}{
		{"empty title", c, "   ", "A", 10, ErrTitleRequired},
		{"zero total", c, "New", "A", 0, ErrInvalidTotal},
		{"negative total", c, "New", "A", -4, ErrInvalidTotal},
		{"duplicate", c, "Dune", "Other", 10, ErrDuplicateTitle},
		{"duplicate after trim", c, " Dune ", "Other", 10, ErrDuplicateTitle},
		{"author required", strict, "New", "  ", 10, ErrAuthorRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.c.AddBook(ctx, tt.title, tt.author, tt.total)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, m.Calls("append"))

	b, err := c.AddBook(ctx, "Anon", "", 50)
	require.NoError(t, err)
	assert.Equal(t, "", b.Author)
}

func TestSetProgress_Idempotent(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t, []string{"Dune", "Herbert", "10", "412", "reading", ""})
	b := mustLookup(t, c, "Dune")

	once, err := c.SetProgress(ctx, b, 42)
	require.NoError(t, err)
	twice, err := c.SetProgress(ctx, once, 42)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, models.Book{Row: 2, Title: "Dune", Author: "Herbert", Progress: 42, Total: 412, Status: models.StatusReading}, twice)
}

func TestSetProgress_RejectsOutOfRange(t *testing.T) {
	c, m := newController(t, []string{"Dune", "Herbert", "10", "412", "reading", ""})
	b := mustLookup(t, c, "Dune")

	for _, p := range []int{-1, 101} {
		_, err := c.SetProgress(context.Background(), b, p)
		assert.ErrorIs(t, err, ErrInvalidProgress)
	}
	assert.Equal(t, 0, m.Calls("update"))
}

func TestSetProgress_HundredCompletes(t *testing.T) {
	c, _ := newController(t, []string{"Dune", "Herbert", "95", "412", "reading", ""})

	b, err := c.SetProgress(context.Background(), mustLookup(t, c, "Dune"), 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, b.Status)
	assert.Equal(t, "2024-05-06", b.Date)
	assert.True(t, b.Valid())
}

func TestMarkDone_Invariant(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t, []string{"Dune", "Herbert", "30", "412", "reading", ""})

	b, err := c.MarkDone(ctx, mustLookup(t, c, "Dune"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, b.Status)
	assert.Equal(t, 100, b.Progress)
	assert.NotEmpty(t, b.Date)
	assert.Equal(t, b, mustLookup(t, c, "Dune"))
}

func TestMarkDone_AgainRestampsDate(t *testing.T) {
	c, _ := newController(t, []string{"Emma", "Austen", "100", "320", "done", "2023-01-01"})

	b, err := c.MarkDone(context.Background(), mustLookup(t, c, "Emma"))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", b.Date)
}

func TestDoneIsTerminal(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t, []string{"Emma", "Austen", "100", "320", "done", "2023-01-01"})
	b := mustLookup(t, c, "Emma")

	ops := []struct {
		name string
		run  func() (models.Book, error)
	}{
		{"set 0", func() (models.Book, error) { return c.SetProgress(ctx, b, 0) }},
		{"set 99", func() (models.Book, error) { return c.SetProgress(ctx, b, 99) }},
		{"set 100", func() (models.Book, error) { return c.SetProgress(ctx, b, 100) }},
		{"step back", func() (models.Book, error) { return c.Step(ctx, b, -StepSize) }},
		{"step forward", func() (models.Book, error) { return c.Step(ctx, b, StepSize) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			_, err := op.run()
			assert.ErrorIs(t, err, ErrBookDone)
			assert.Equal(t, b, mustLookup(t, c, "Emma"))
		})
	}

	b, err := c.MarkDone(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, b.Status)
}

func TestStep_Clamps(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t,
		[]string{"Low", "", "3", "100", "reading", ""},
		[]string{"High", "", "97", "100", "reading", ""},
	)

	low, err := c.Step(ctx, mustLookup(t, c, "Low"), -StepSize)
	require.NoError(t, err)
	assert.Equal(t, 0, low.Progress)

	high, err := c.Step(ctx, mustLookup(t, c, "High"), StepSize)
	require.NoError(t, err)
	assert.Equal(t, 100, high.Progress)
	assert.Equal(t, models.StatusDone, high.Status)
}

func TestScenario_Dune(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)

	b, err := c.AddBook(ctx, "Dune", "F. Herbert", 412)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Progress)

	b, err = c.Step(ctx, b, StepSize)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Progress)
	assert.Equal(t, 20, NewView(b).ReadPages)

	b, err = c.MarkDone(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 100, b.Progress)
	assert.Equal(t, models.StatusDone, b.Status)
	assert.Equal(t, today.Format(models.DateLayout), b.Date)
}

func TestDeleteBook_RemovesOnlyThatRow(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t,
		[]string{"Dune", "Herbert", "10", "412", "reading", ""},
		[]string{"Emma", "Austen", "100", "320", "done", "2024-01-02"},
		[]string{"Ulysses", "Joyce", "40", "730", "reading", ""},
	)
	before, err := c.List(ctx)
	require.NoError(t, err)

	require.NoError(t, c.DeleteBook(ctx, before[1]))

	after, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, before[0], after[0])

	moved := before[2]
	moved.Row--
	assert.Equal(t, moved, after[1])

	_, err = c.Lookup(ctx, "Emma")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBook_OnlyDone(t *testing.T) {
	c, m := newController(t, []string{"Dune", "Herbert", "10", "412", "reading", ""})

	err := c.DeleteBook(context.Background(), mustLookup(t, c, "Dune"))
	assert.ErrorIs(t, err, ErrNotDone)
	assert.Equal(t, 0, m.Calls("delete"))
}

func TestStaleRowHandleIsReResolved(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t,
		[]string{"Emma", "Austen", "100", "320", "done", "2024-01-02"},
		[]string{"Dune", "Herbert", "10", "412", "reading", ""},
	)
	dune := mustLookup(t, c, "Dune")
	require.Equal(t, 3, dune.Row)

	require.NoError(t, c.DeleteBook(ctx, mustLookup(t, c, "Emma")))

	b, err := c.SetProgress(ctx, dune, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Row)
	assert.Equal(t, 50, b.Progress)
}

func TestDuplicateTitlesAreRefused(t *testing.T) {
	ctx := context.Background()
	c, m := newController(t,
		[]string{"Dune", "Herbert", "10", "412", "reading", ""},
		[]string{"Dune", "Herbert", "60", "412", "reading", ""},
	)

	_, err := c.Lookup(ctx, "Dune")
	assert.ErrorIs(t, err, ErrAmbiguousTitle)

	_, err = c.SetProgress(ctx, models.Book{Title: "Dune", Row: 2}, 20)
	assert.ErrorIs(t, err, ErrAmbiguousTitle)
	_, err = c.MarkDone(ctx, models.Book{Title: "Dune", Row: 3})
	assert.ErrorIs(t, err, ErrAmbiguousTitle)
	assert.Equal(t, 0, m.Calls("update"))

	_, err = c.AddBook(ctx, "Dune", "X", 5)
	assert.ErrorIs(t, err, ErrDuplicateTitle)
}

func TestMissingBook(t *testing.T) {
	c, _ := newController(t)
	_, err := c.SetProgress(context.Background(), models.Book{Title: "Ghost", Row: 2}, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	c, m := newController(t, []string{"Dune", "Herbert", "10", "412", "reading", ""})
	b := mustLookup(t, c, "Dune")
	down := errors.New("connection refused")

	for _, op := range []string{"list", "update", "append"} {
		t.Run(op, func(t *testing.T) {
			m.Fail = func(got string) error {
				if got == op {
					return down
				}
				return nil
			}
			defer func() { m.Fail = nil }()

			var err error
			switch op {
			case "append":
				_, err = c.AddBook(ctx, "New", "A", 10)
			default:
				_, err = c.SetProgress(ctx, b, 30)
			}
			assert.ErrorIs(t, err, sheet.ErrUnavailable)
			assert.ErrorIs(t, err, down)
		})
	}
	assert.Equal(t, b, mustLookup(t, c, "Dune"))
}

func TestMarkDone_PartialWrite(t *testing.T) {
	c, m := newController(t, []string{"Dune", "Herbert", "10", "412", "reading", ""})
	b := mustLookup(t, c, "Dune")

	updates := 0
	m.Fail = func(op string) error {
		if op != "update" {
			return nil
		}
		updates++
		if updates == 2 {
			return errors.New("quota")
		}
		return nil
	}
	_, err := c.MarkDone(context.Background(), b)

	var pw *sheet.PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, []int{sheet.ColProgress}, pw.Written)
	assert.Equal(t, sheet.ColStatus, pw.Failed)
}

func TestAfterHooks(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	c := New(sheet.NewMemory(), WithClock(func() time.Time { return today }), WithRecorder(rec), WithPublisher(pub))

	b, err := c.AddBook(ctx, "Dune", "Herbert", 412)
	require.NoError(t, err)
	b, err = c.Step(ctx, b, StepSize)
	require.NoError(t, err)
	b, err = c.MarkDone(ctx, b)
	require.NoError(t, err)
	require.NoError(t, c.DeleteBook(ctx, b))

	want := []models.Action{models.ActionAdd, models.ActionProgress, models.ActionDone, models.ActionDelete}
	require.Len(t, rec.entries, 4)
	require.Len(t, pub.events, 4)
	for i, a := range want {
		assert.Equal(t, a, rec.entries[i].Action)
		assert.Equal(t, a, pub.events[i].action)
		assert.Equal(t, "Dune", rec.entries[i].Title)
	}
	assert.Equal(t, 5, rec.entries[1].Progress)
	assert.Equal(t, "2024-05-06", rec.entries[2].Date)
}

func TestRecorderFailureIsIgnored(t *testing.T) {
	c := New(sheet.NewMemory(), WithRecorder(&fakeRecorder{err: errors.New("disk full")}))
	_, err := c.AddBook(context.Background(), "Dune", "Herbert", 412)
	assert.NoError(t, err)
}
