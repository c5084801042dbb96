package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readlist/internal/progress"
	"readlist/internal/sheet"
)

func newRouter(t *testing.T, rows ...[]string) (*gin.Engine, *progress.Controller, *sheet.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := sheet.NewMemory(rows...)
	ctl := progress.New(m, progress.WithClock(func() time.Time {
		return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	}))
	r := gin.New()
	NewHandler(ctl).RegisterRoutes(r.Group(""))
	return r, ctl, m
}

func post(t *testing.T, r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func redirectError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", loc.Path)
	return loc.Query().Get("error")
}

func TestIndex_RendersBooks(t *testing.T) {
	r, _, _ := newRouter(t,
		[]string{"Dune", "F. Herbert", "5", "412", "reading", ""},
		[]string{"Emma", "Austen", "100", "320", "done", "2024-01-02"},
	)

	w := get(t, r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "20/412 pages (5%)")
	assert.Contains(t, body, "finished 2024-01-02")
	assert.Contains(t, body, `action="/ui/delete"`)
	assert.Equal(t, 1, strings.Count(body, `action="/ui/done"`), "only reading books get a done button")
}

func TestIndex_ShowsInlineError(t *testing.T) {
	r, _, _ := newRouter(t)
	w := get(t, r, "/?error="+url.QueryEscape(`"Dune": <b>nope</b>`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "&#34;Dune&#34;: &lt;b&gt;nope&lt;/b&gt;")
}

func TestIndex_StoreDown(t *testing.T) {
	r, _, m := newRouter(t, []string{"Dune", "F. Herbert", "5", "412", "reading", ""})
	m.Fail = func(string) error { return errors.New("oauth2: invalid_grant") }

	w := get(t, r, "/")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "could not reach the sheet store")
	assert.NotContains(t, body, "412 pages")
}

func TestForms_Lifecycle(t *testing.T) {
	r, ctl, _ := newRouter(t)

	w := post(t, r, "/ui/books", url.Values{"title": {"Dune"}, "author": {"F. Herbert"}, "total": {"412"}})
	assert.Empty(t, redirectError(t, w))

	w = post(t, r, "/ui/step", url.Values{"title": {"Dune"}, "delta": {"5"}})
	assert.Empty(t, redirectError(t, w))

	w = post(t, r, "/ui/progress", url.Values{"title": {"Dune"}, "progress": {"130"}})
	assert.Empty(t, redirectError(t, w))

	b, err := ctl.Lookup(context.Background(), "Dune")
	require.NoError(t, err)
	assert.True(t, b.IsDone(), "slider clamped to 100 completes the book")

	w = post(t, r, "/ui/delete", url.Values{"title": {"Dune"}})
	assert.Empty(t, redirectError(t, w))

	books, err := ctl.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestForms_Errors(t *testing.T) {
	r, _, _ := newRouter(t,
		[]string{"Dune", "F. Herbert", "5", "412", "reading", ""},
		[]string{"Emma", "Austen", "100", "320", "done", "2024-01-02"},
	)

	tests := []struct {
		name string
		path string
		form url.Values
		want string
	}{
		{"bad total", "/ui/books", url.Values{"title": {"Kim"}, "total": {"lots"}}, `"Kim": total pages must be at least 1`},
		{"duplicate", "/ui/books", url.Values{"title": {"Dune"}, "total": {"3"}}, `"Dune": a book with this title already exists`},
		{"delete reading", "/ui/delete", url.Values{"title": {"Dune"}}, `"Dune": only finished books can be deleted`},
		{"step done", "/ui/step", url.Values{"title": {"Emma"}, "delta": {"-5"}}, `"Emma": book is already done`},
		{"missing", "/ui/done", url.Values{"title": {"Ghost"}}, `"Ghost": book not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := redirectError(t, post(t, r, tt.path, tt.form))
			assert.True(t, strings.HasPrefix(msg, tt.want), msg)
		})
	}
}
