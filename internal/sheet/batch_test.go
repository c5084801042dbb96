package sheet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCells_Sequential(t *testing.T) {
	ctx := context.Background()
	m := seeded()

	err := UpdateCells(ctx, m, 3, map[int]string{ColStatus: "reading", ColProgress: "40"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Calls("update"))

	rows, err := m.ListRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "40", rows[1]["progress"])
	assert.Equal(t, "reading", rows[1]["status"])
}

func TestUpdateCells_PartialWrite(t *testing.T) {
	ctx := context.Background()
	m := seeded()
	boom := errors.New("write rejected")
	m.Fail = func(op string) error {
		if op == "update" && m.calls["update"] == 2 {
			return boom
		}
		return nil
	}

	err := UpdateCells(ctx, m, 2, map[int]string{ColDate: "2024-05-01", ColProgress: "100", ColStatus: "done"})
	require.Error(t, err)

	var pw *PartialWriteError
	require.ErrorAs(t, err, &pw)
	assert.Equal(t, 2, pw.Row)
	assert.Equal(t, []int{ColProgress}, pw.Written)
	assert.Equal(t, ColStatus, pw.Failed)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrUnavailable)

	m.Fail = nil
	rows, err := m.ListRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", rows[0]["progress"])
	assert.Equal(t, "reading", rows[0]["status"])
}

func TestUpdateCells_FirstCellFailureIsPlain(t *testing.T) {
	m := seeded()
	m.Fail = func(op string) error {
		if op == "update" {
			return errors.New("offline")
		}
		return nil
	}

	err := UpdateCells(context.Background(), m, 2, map[int]string{ColProgress: "20", ColStatus: "reading"})
	require.Error(t, err)

	var pw *PartialWriteError
	assert.False(t, errors.As(err, &pw))
	assert.ErrorIs(t, err, ErrUnavailable)
}
