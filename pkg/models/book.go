package models

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date stamped on completed books.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusReading Status = "reading"
	StatusDone    Status = "done"
)

var (
	ErrBookDone        = errors.New("book is already done")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// ParseStatus never fails: a corrupt status cell reads as "reading".
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "done", "completed", "complete":
		return StatusDone
	default:
		return StatusReading
	}
}

// Book is an immutable snapshot of one sheet row. Transitions return new values;
// none of them leads from done back to reading.
type Book struct {
	Row      int    `json:"row"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Progress int    `json:"progress"`
	Total    int    `json:"total"`
	Status   Status `json:"status"`
	Date     string `json:"date"`
}

// NewReading builds the state of a freshly added book.
func NewReading(title, author string, total int) Book {
	return Book{
		Title:  title,
		Author: author,
		Total:  total,
		Status: StatusReading,
	}
}

func (b Book) IsDone() bool { return b.Status == StatusDone }

// WithProgress returns b with a new percentage. Done books are terminal.
func (b Book) WithProgress(p int) (Book, error) {
	if b.IsDone() {
		return b, ErrBookDone
	}
	if p < 0 || p > 100 {
		return b, ErrInvalidProgress
	}
	b.Progress = p
	return b, nil
}

// Complete returns b as a done book stamped with the calendar date of today.
// Completing a done book again re-stamps the date.
func (b Book) Complete(today time.Time) Book {
	b.Progress = 100
	b.Status = StatusDone
	b.Date = today.Format(DateLayout)
	return b
}

// Valid reports whether the lifecycle invariants hold.
func (b Book) Valid() bool {
	if b.Progress < 0 || b.Progress > 100 {
		return false
	}
	switch b.Status {
	case StatusDone:
		return b.Progress == 100 && b.Date != ""
	case StatusReading:
		return b.Date == ""
	default:
		return false
	}
}
