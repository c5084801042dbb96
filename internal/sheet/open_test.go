package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readlist/pkg/utils"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory without cache", func(t *testing.T) {
		s, err := Open(ctx, utils.SheetConfig{Backend: utils.StoreMemory})
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, s)
	})

	t.Run("xlsx with cache", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "books.xlsx")
		s, err := Open(ctx, utils.SheetConfig{Backend: utils.StoreXLSX, XLSXPath: path, CacheTTL: time.Second})
		require.NoError(t, err)
		c, ok := s.(*Cached)
		require.True(t, ok)
		assert.IsType(t, &XLSX{}, c.Store)
		assert.NoError(t, Ping(ctx, s))
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := Open(ctx, utils.SheetConfig{
			Backend:       utils.StoreSheets,
			SpreadsheetID: "abc",
			Credentials:   []byte("not json"),
		})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, utils.SheetConfig{Backend: "csv"})
		assert.Error(t, err)
	})
}
