package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"
)

// XLSX keeps the sheet in a local workbook, first worksheet. Each call opens
// the file, applies one change, saves and closes it, so the file stays the only
// copy of the data.
type XLSX struct {
	Path string
	mu   sync.Mutex
}

func NewXLSX(path string) *XLSX {
	return &XLSX{Path: path}
}

// Init creates the workbook with its header row when the file does not exist yet.
func (x *XLSX) Init() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, err := os.Stat(x.Path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return opErr("init", err)
	}

	if err := os.MkdirAll(filepath.Dir(x.Path), 0o755); err != nil {
		return opErr("init", fmt.Errorf("create data dir: %w", err))
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := f.GetSheetName(f.GetActiveSheetIndex())
	header := make([]interface{}, len(Columns))
	for i, name := range Columns {
		header[i] = name
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return opErr("init", fmt.Errorf("write header: %w", err))
	}
	if err := f.SaveAs(x.Path); err != nil {
		return opErr("init", fmt.Errorf("save workbook: %w", err))
	}
	return nil
}

// withFile runs fn on the open workbook and saves it when save is set.
func (x *XLSX) withFile(op string, save bool, fn func(f *excelize.File, sheetName string, rows [][]string) error) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return opErr(op, fmt.Errorf("open workbook: %w", err))
	}
	defer func() {
		_ = f.Close()
	}()

	sheetName := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return opErr(op, fmt.Errorf("read rows: %w", err))
	}

	if err := fn(f, sheetName, rows); err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := f.Save(); err != nil {
		return opErr(op, fmt.Errorf("save workbook: %w", err))
	}
	return nil
}

func (x *XLSX) ListRows(ctx context.Context) ([]Record, error) {
	var out []Record
	err := x.withFile("list", false, func(_ *excelize.File, _ string, rows [][]string) error {
		out = decodeRows(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (x *XLSX) AppendRow(ctx context.Context, values []string) error {
	if len(values) != len(Columns) {
		return ErrBadRowWidth
	}
	return x.withFile("append", true, func(f *excelize.File, sheetName string, rows [][]string) error {
		next := len(rows) + 1
		if next < FirstDataRow {
			next = FirstDataRow
		}
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return opErr("append", err)
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = cellValue(i+1, v)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return opErr("append", err)
		}
		return nil
	})
}

func (x *XLSX) FindRow(ctx context.Context, title string) (int, error) {
	row := 0
	err := x.withFile("find", false, func(_ *excelize.File, _ string, rows [][]string) error {
		for i, r := range decodeRows(rows) {
			if r["title"] == title {
				row = i + FirstDataRow
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return 0, err
	}
	return row, nil
}

func (x *XLSX) UpdateCell(ctx context.Context, row, col int, value string) error {
	return x.UpdateCells(ctx, row, map[int]string{col: value})
}

// UpdateCells sets every cell before a single save, so either all of them
// reach the file or none do.
func (x *XLSX) UpdateCells(ctx context.Context, row int, values map[int]string) error {
	return x.withFile("update", true, func(f *excelize.File, sheetName string, rows [][]string) error {
		if err := checkRow(row, dataRowCount(rows)); err != nil {
			return err
		}
		for _, col := range sortedCols(values) {
			if err := checkCol(col); err != nil {
				return err
			}
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return opErr("update", err)
			}
			if err := f.SetCellValue(sheetName, cell, cellValue(col, values[col])); err != nil {
				return opErr("update", err)
			}
		}
		return nil
	})
}

func (x *XLSX) DeleteRow(ctx context.Context, row int) error {
	return x.withFile("delete", true, func(f *excelize.File, sheetName string, rows [][]string) error {
		if err := checkRow(row, dataRowCount(rows)); err != nil {
			return err
		}
		if err := f.RemoveRow(sheetName, row); err != nil {
			return opErr("delete", err)
		}
		return nil
	})
}

func (x *XLSX) Ping(ctx context.Context) error {
	return x.withFile("ping", false, func(*excelize.File, string, [][]string) error { return nil })
}

func decodeRows(rows [][]string) []Record {
	if len(rows) == 0 {
		return []Record{}
	}
	idx := headerIndex(rows[0])
	out := make([]Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		out = append(out, recordFromCells(idx, cells))
	}
	return out
}

func dataRowCount(rows [][]string) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows) - 1
}
