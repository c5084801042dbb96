package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readlist/internal/progress"
	"readlist/pkg/models"
)

func TestWriteBooks(t *testing.T) {
	var sb strings.Builder
	views := progress.Views([]models.Book{
		{Title: "Dune", Author: "F. Herbert", Progress: 5, Total: 412, Status: models.StatusReading},
		{Title: "Emma, a Novel", Author: "Austen", Progress: 100, Total: 320, Status: models.StatusDone, Date: "2024-01-02"},
	})
	require.NoError(t, writeBooks(&sb, views))

	assert.Equal(t, `title,author,progress,total,read_pages,status,date
Dune,F. Herbert,5,412,20,reading,
"Emma, a Novel",Austen,100,320,320,done,2024-01-02
`, sb.String())
}

func TestWriteHistory(t *testing.T) {
	var sb strings.Builder
	at := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	require.NoError(t, writeHistory(&sb, []models.ProgressEntry{
		{Title: "Dune", Action: models.ActionDone, Progress: 100, Status: models.StatusDone, Date: "2024-05-06", At: at},
	}))

	assert.Equal(t, "at,title,action,progress,status,date\n2024-05-06T10:00:00Z,Dune,done,100,done,2024-05-06\n", sb.String())
}

func TestWriteFile_CreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "books.csv")
	require.NoError(t, writeFile(path, func(w io.Writer) error {
		return writeBooks(w, nil)
	}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "title,author"))
}
