package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readlist/pkg/database"
	"readlist/pkg/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "history.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func seed(t *testing.T, r *Repo) {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []models.ProgressEntry{
		{Title: "Dune", Action: models.ActionAdd, Status: models.StatusReading, At: base},
		{Title: "Dune", Action: models.ActionProgress, Progress: 5, Status: models.StatusReading, At: base.Add(time.Hour)},
		{Title: "Emma", Action: models.ActionAdd, Status: models.StatusReading, At: base.Add(90 * time.Minute)},
		{Title: "Dune", Action: models.ActionDone, Progress: 100, Status: models.StatusDone, Date: "2024-05-01", At: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, r.Add(context.Background(), e))
	}
}

func TestRepo_ListNewestFirst(t *testing.T) {
	r := NewRepo(newTestDB(t))
	seed(t, r)

	items, total, err := r.List(context.Background(), "Dune", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, models.ActionDone, items[0].Action)
	assert.Equal(t, "2024-05-01", items[0].Date)
	assert.Equal(t, models.StatusDone, items[0].Status)
	assert.Equal(t, models.ActionProgress, items[1].Action)

	items, _, err = r.List(context.Background(), "Dune", 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ActionAdd, items[0].Action)
}

func TestRepo_AllOldestFirst(t *testing.T) {
	r := NewRepo(newTestDB(t))
	seed(t, r)

	all, err := r.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Dune", all[0].Title)
	assert.Equal(t, "Emma", all[2].Title)
	assert.NotZero(t, all[3].ID)
}

func TestRepo_AddDefaultsTimestamp(t *testing.T) {
	r := NewRepo(newTestDB(t))
	require.NoError(t, r.Add(context.Background(), models.ProgressEntry{Title: "Kim", Action: models.ActionAdd, Status: models.StatusReading}))

	items, _, err := r.List(context.Background(), "Kim", 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.WithinDuration(t, time.Now(), items[0].At, time.Minute)
}

func TestHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRepo(newTestDB(t))
	seed(t, r)

	router := gin.New()
	NewHandler(r).RegisterRoutes(router.Group("/api"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/Dune/history?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Total int                    `json:"total"`
		Limit int                    `json:"limit"`
		Items []models.ProgressEntry `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 10, body.Limit)
	assert.Len(t, body.Items, 3)
}

func TestHandler_ReportsClampedPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRepo(newTestDB(t))
	seed(t, r)

	router := gin.New()
	NewHandler(r).RegisterRoutes(router.Group("/api"))

	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"?limit=500", DefaultLimit, 0},
		{"?limit=0&offset=-3", DefaultLimit, 0},
		{"?limit=100&offset=1", 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/Dune/history"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var body struct {
				Limit  int `json:"limit"`
				Offset int `json:"offset"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantLimit, body.Limit)
			assert.Equal(t, tt.wantOffset, body.Offset)
		})
	}
}

func TestPage(t *testing.T) {
	l, o := Page(-1, -1)
	assert.Equal(t, DefaultLimit, l)
	assert.Equal(t, 0, o)

	l, o = Page(MaxLimit, 7)
	assert.Equal(t, MaxLimit, l)
	assert.Equal(t, 7, o)
}
