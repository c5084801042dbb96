package sheet

import (
	"context"
	"fmt"
	"slices"
)

// PartialWriteError reports a multi-cell update that stopped part way.
// Written lists the columns that were stored before Failed was rejected.
type PartialWriteError struct {
	Row     int
	Written []int
	Failed  int
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write on row %d: columns %v written, column %d failed: %v",
		e.Row, e.Written, e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// UpdateCells writes values (column -> value) to one row, in a single call when
// the store supports it and cell by cell, left to right, otherwise.
func UpdateCells(ctx context.Context, s Store, row int, values map[int]string) error {
	if b, ok := s.(BatchUpdater); ok {
		return b.UpdateCells(ctx, row, values)
	}

	var written []int
	for _, col := range sortedCols(values) {
		if err := s.UpdateCell(ctx, row, col, values[col]); err != nil {
			if len(written) == 0 {
				return err
			}
			return &PartialWriteError{Row: row, Written: written, Failed: col, Err: err}
		}
		written = append(written, col)
	}
	return nil
}

func sortedCols(values map[int]string) []int {
	cols := make([]int, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	return cols
}
