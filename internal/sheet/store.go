// Package sheet is the row-oriented table the reading list lives in.
//
// Row 1 holds the header, data starts at row 2. Column numbers are 1-indexed.
// Deleting a row shifts every later row up by one, so any row number held by a
// caller is only valid until the next delete.
package sheet

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

const (
	ColTitle = iota + 1
	ColAuthor
	ColProgress
	ColTotal
	ColStatus
	ColDate
)

// HeaderRow is the sheet row holding the column names.
const HeaderRow = 1

// FirstDataRow is the row number of the first record.
const FirstDataRow = 2

// Columns lists the header names in sheet order.
var Columns = []string{"title", "author", "progress", "total", "status", "date"}

var (
	ErrNotFound      = errors.New("row not found")
	ErrRowOutOfRange = errors.New("row out of range")
	ErrHeaderRow     = errors.New("header row is read-only")
	ErrBadColumn     = errors.New("column out of range")
	ErrBadRowWidth   = errors.New("row must have one value per column")

	// ErrUnavailable matches every *OpError: the store could not be reached,
	// authenticated against, or read/written.
	ErrUnavailable = errors.New("sheet store unavailable")
)

// Record is one data row keyed by column name.
type Record map[string]string

type Store interface {
	// ListRows returns all data rows in sheet order. The record at index i
	// lives at sheet row i+FirstDataRow.
	ListRows(ctx context.Context) ([]Record, error)
	AppendRow(ctx context.Context, values []string) error
	// FindRow returns the sheet row of the first record whose title matches
	// exactly. It cannot see duplicates, so the progress controller resolves
	// rows by scanning ListRows instead; FindRow serves simple lookups and
	// the backend tests.
	FindRow(ctx context.Context, title string) (int, error)
	UpdateCell(ctx context.Context, row, col int, value string) error
	DeleteRow(ctx context.Context, row int) error
}

// BatchUpdater writes several cells of one row in a single call.
type BatchUpdater interface {
	UpdateCells(ctx context.Context, row int, values map[int]string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// OpError wraps a failure of the backing service or file.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "sheet " + e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == ErrUnavailable }

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// Ping checks that the store answers, bypassing any cache.
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	_, err := s.ListRows(ctx)
	return err
}

func checkRow(row, rows int) error {
	if row == HeaderRow {
		return ErrHeaderRow
	}
	if row < FirstDataRow || row >= FirstDataRow+rows {
		return ErrRowOutOfRange
	}
	return nil
}

func checkCol(col int) error {
	if col < ColTitle || col > ColDate {
		return ErrBadColumn
	}
	return nil
}

// headerIndex maps column names to cell positions using the sheet's own
// header, falling back to the canonical order for names it does not carry.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(Columns))
	for i, name := range header {
		idx[normalizeHeader(name)] = i
	}
	for i, name := range Columns {
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	return idx
}

func recordFromCells(idx map[string]int, cells []string) Record {
	rec := make(Record, len(Columns))
	for _, name := range Columns {
		pos := idx[name]
		if pos < len(cells) {
			rec[name] = cells[pos]
		} else {
			rec[name] = ""
		}
	}
	return rec
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// cellValue stores the numeric columns as numbers so the sheet stays
// sortable in a spreadsheet app. Text columns are written verbatim.
func cellValue(col int, s string) interface{} {
	if col != ColProgress && col != ColTotal {
		return s
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
