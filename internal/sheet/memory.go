package sheet

import (
	"context"
	"sync"
)

// Memory is an in-process sheet. It backs tests and the "memory" store setting.
type Memory struct {
	mu   sync.Mutex
	rows [][]string

	// Fail, when set, is consulted before every operation ("list", "append",
	// "find", "update", "delete"); a non-nil result is returned as an *OpError.
	// It runs with the store locked and must not call back into it.
	Fail func(op string) error

	calls map[string]int
}

func NewMemory(rows ...[]string) *Memory {
	m := &Memory{calls: make(map[string]int)}
	for _, r := range rows {
		m.rows = append(m.rows, normalizeWidth(r))
	}
	return m
}

// Calls reports how many times op was attempted.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *Memory) begin(op string) error {
	m.calls[op]++
	if m.Fail != nil {
		return opErr(op, m.Fail(op))
	}
	return nil
}

func (m *Memory) ListRows(ctx context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("list"); err != nil {
		return nil, err
	}

	idx := headerIndex(Columns)
	out := make([]Record, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, recordFromCells(idx, r))
	}
	return out, nil
}

func (m *Memory) AppendRow(ctx context.Context, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("append"); err != nil {
		return err
	}
	if len(values) != len(Columns) {
		return ErrBadRowWidth
	}

	m.rows = append(m.rows, normalizeWidth(values))
	return nil
}

func (m *Memory) FindRow(ctx context.Context, title string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("find"); err != nil {
		return 0, err
	}

	for i, r := range m.rows {
		if r[ColTitle-1] == title {
			return i + FirstDataRow, nil
		}
	}
	return 0, ErrNotFound
}

func (m *Memory) UpdateCell(ctx context.Context, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("update"); err != nil {
		return err
	}
	if err := checkRow(row, len(m.rows)); err != nil {
		return err
	}
	if err := checkCol(col); err != nil {
		return err
	}

	m.rows[row-FirstDataRow][col-1] = value
	return nil
}

func (m *Memory) DeleteRow(ctx context.Context, row int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("delete"); err != nil {
		return err
	}
	if err := checkRow(row, len(m.rows)); err != nil {
		return err
	}

	i := row - FirstDataRow
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return nil
}

func normalizeWidth(values []string) []string {
	out := make([]string, len(Columns))
	copy(out, values)
	return out
}
