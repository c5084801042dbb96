// Package progress owns the reading lifecycle of a book: it derives page
// counts, moves progress, completes and deletes books, and writes each change
// to the sheet before reading it back.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"readlist/internal/sheet"
	"readlist/pkg/models"
)

// Recorder journals confirmed changes.
type Recorder interface {
	Add(ctx context.Context, entry models.ProgressEntry) error
}

// Publisher tells other open screens that a book changed.
type Publisher interface {
	PublishBook(action models.Action, b models.Book)
}

type Controller struct {
	Store sheet.Store

	allowEmptyAuthor bool
	now              func() time.Time
	recorder         Recorder
	publisher        Publisher
}

type Option func(*Controller)

func WithAllowEmptyAuthor(allow bool) Option {
	return func(c *Controller) { c.allowEmptyAuthor = allow }
}

// WithClock replaces time.Now when stamping completion dates.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func New(store sheet.Store, opts ...Option) *Controller {
	c := &Controller{
		Store:            store,
		allowEmptyAuthor: true,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every book in sheet order.
func (c *Controller) List(ctx context.Context) ([]models.Book, error) {
	rows, err := c.Store.ListRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	out := make([]models.Book, 0, len(rows))
	for i, rec := range rows {
		out = append(out, Decode(i+sheet.FirstDataRow, rec))
	}
	return out, nil
}

// Lookup reads the one book with exactly this title.
func (c *Controller) Lookup(ctx context.Context, title string) (models.Book, error) {
	books, err := c.List(ctx)
	if err != nil {
		return models.Book{}, err
	}

	var (
		found models.Book
		n     int
	)
	for _, b := range books {
		if b.Title == title {
			found = b
			n++
		}
	}
	switch n {
	case 0:
		return models.Book{}, fmt.Errorf("find %q: %w", title, ErrNotFound)
	case 1:
		return found, nil
	default:
		return models.Book{}, fmt.Errorf("find %q (%d rows): %w", title, n, ErrAmbiguousTitle)
	}
}

// AddBook appends a new reading book with no progress.
func (c *Controller) AddBook(ctx context.Context, title, author string, total int) (models.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" {
		return models.Book{}, ErrTitleRequired
	}
	if author == "" && !c.allowEmptyAuthor {
		return models.Book{}, ErrAuthorRequired
	}
	if total < 1 {
		return models.Book{}, ErrInvalidTotal
	}

	_, err := c.Lookup(ctx, title)
	switch {
	case err == nil, errors.Is(err, ErrAmbiguousTitle):
		return models.Book{}, fmt.Errorf("add %q: %w", title, ErrDuplicateTitle)
	case !errors.Is(err, ErrNotFound):
		return models.Book{}, err
	}

	b := models.NewReading(title, author, total)
	if err := c.Store.AppendRow(ctx, Encode(b)); err != nil {
		return models.Book{}, fmt.Errorf("append book %q: %w", title, err)
	}

	saved, err := c.confirm(ctx, b)
	if err != nil {
		return models.Book{}, err
	}
	c.after(ctx, models.ActionAdd, saved)
	return saved, nil
}

// SetProgress stores a new percentage. Reaching 100 completes the book.
func (c *Controller) SetProgress(ctx context.Context, b models.Book, p int) (models.Book, error) {
	if p < 0 || p > 100 {
		return b, ErrInvalidProgress
	}
	cur, err := c.resolve(ctx, b)
	if err != nil {
		return b, err
	}
	return c.setProgress(ctx, cur, p)
}

// Step moves progress by delta, clamped to 0..100.
func (c *Controller) Step(ctx context.Context, b models.Book, delta int) (models.Book, error) {
	cur, err := c.resolve(ctx, b)
	if err != nil {
		return b, err
	}
	return c.setProgress(ctx, cur, Clamp(cur.Progress+delta))
}

func (c *Controller) setProgress(ctx context.Context, cur models.Book, p int) (models.Book, error) {
	if cur.IsDone() {
		return cur, fmt.Errorf("set progress of %q: %w", cur.Title, ErrBookDone)
	}
	if p == 100 {
		return c.markDone(ctx, cur)
	}

	next, err := cur.WithProgress(p)
	if err != nil {
		return cur, err
	}
	if err := c.Store.UpdateCell(ctx, cur.Row, sheet.ColProgress, strconv.Itoa(p)); err != nil {
		return cur, fmt.Errorf("write progress of %q: %w", cur.Title, err)
	}

	saved, err := c.confirm(ctx, next)
	if err != nil {
		return cur, err
	}
	c.after(ctx, models.ActionProgress, saved)
	return saved, nil
}

// MarkDone sets progress to 100, status to done and the date to today.
func (c *Controller) MarkDone(ctx context.Context, b models.Book) (models.Book, error) {
	cur, err := c.resolve(ctx, b)
	if err != nil {
		return b, err
	}
	return c.markDone(ctx, cur)
}

func (c *Controller) markDone(ctx context.Context, cur models.Book) (models.Book, error) {
	next := cur.Complete(c.now())
	cells := map[int]string{
		sheet.ColProgress: strconv.Itoa(next.Progress),
		sheet.ColStatus:   string(next.Status),
		sheet.ColDate:     next.Date,
	}
	if err := sheet.UpdateCells(ctx, c.Store, cur.Row, cells); err != nil {
		return cur, fmt.Errorf("mark %q done: %w", cur.Title, err)
	}

	saved, err := c.confirm(ctx, next)
	if err != nil {
		return cur, err
	}
	c.after(ctx, models.ActionDone, saved)
	return saved, nil
}

// DeleteBook removes a finished book's row.
func (c *Controller) DeleteBook(ctx context.Context, b models.Book) error {
	cur, err := c.resolve(ctx, b)
	if err != nil {
		return err
	}
	if !cur.IsDone() {
		return fmt.Errorf("delete %q: %w", cur.Title, ErrNotDone)
	}
	if err := c.Store.DeleteRow(ctx, cur.Row); err != nil {
		return fmt.Errorf("delete %q: %w", cur.Title, err)
	}

	_, err = c.Lookup(ctx, cur.Title)
	switch {
	case errors.Is(err, ErrNotFound):
	case err == nil:
		return fmt.Errorf("delete %q: %w", cur.Title, ErrNotConfirmed)
	default:
		return fmt.Errorf("confirm delete of %q: %w", cur.Title, err)
	}

	c.after(ctx, models.ActionDelete, cur)
	return nil
}

// resolve re-reads b by title. The row handle b carries may be stale after a
// delete elsewhere in the sheet; the fresh one wins.
func (c *Controller) resolve(ctx context.Context, b models.Book) (models.Book, error) {
	cur, err := c.Lookup(ctx, b.Title)
	if err != nil {
		return b, err
	}
	if b.Row != 0 && b.Row != cur.Row {
		log.Printf("[progress] stale row for %q: had %d, now %d", b.Title, b.Row, cur.Row)
	}
	return cur, nil
}

// confirm re-reads the book after a write and checks the stored cells match want.
func (c *Controller) confirm(ctx context.Context, want models.Book) (models.Book, error) {
	saved, err := c.Lookup(ctx, want.Title)
	if err != nil {
		return want, fmt.Errorf("confirm %q: %w", want.Title, err)
	}
	if saved.Progress != want.Progress || saved.Status != want.Status || saved.Date != want.Date {
		return saved, fmt.Errorf("confirm %q: %w", want.Title, ErrNotConfirmed)
	}
	return saved, nil
}

func (c *Controller) after(ctx context.Context, action models.Action, b models.Book) {
	if c.recorder != nil {
		entry := models.ProgressEntry{
			Title:    b.Title,
			Action:   action,
			Progress: b.Progress,
			Status:   b.Status,
			Date:     b.Date,
			At:       c.now().UTC(),
		}
		if err := c.recorder.Add(ctx, entry); err != nil {
			log.Printf("[progress] history %s %q: %v", action, b.Title, err)
		}
	}
	if c.publisher != nil {
		c.publisher.PublishBook(action, b)
	}
}
