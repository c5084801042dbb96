// Package web serves the single reading-list page and its form posts.
package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"readlist/internal/progress"
	"readlist/internal/sheet"
	"readlist/pkg/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type Handler struct {
	Ctl *progress.Controller
}

func NewHandler(ctl *progress.Controller) *Handler {
	return &Handler{Ctl: ctl}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.index)
	rg.POST("/ui/books", h.add)
	rg.POST("/ui/progress", h.setProgress)
	rg.POST("/ui/step", h.step)
	rg.POST("/ui/done", h.done)
	rg.POST("/ui/delete", h.remove)
}

type page struct {
	Books      []progress.View
	Error      string
	StoreError string
	Step       int
}

func (h *Handler) index(c *gin.Context) {
	p := page{
		Error: c.Query("error"),
		Step:  progress.StepSize,
	}

	books, err := h.Ctl.List(c.Request.Context())
	status := http.StatusOK
	if err != nil {
		log.Printf("[web] list books: %v", err)
		p.StoreError = message(err)
		status = http.StatusServiceUnavailable
	} else {
		p.Books = progress.Views(books)
	}

	c.Render(status, render.HTML{Template: pageTmpl, Name: "index.html", Data: p})
}

func (h *Handler) add(c *gin.Context) {
	title := c.PostForm("title")
	total, err := strconv.Atoi(strings.TrimSpace(c.PostForm("total")))
	if err != nil {
		back(c, title, progress.ErrInvalidTotal)
		return
	}
	_, err = h.Ctl.AddBook(c.Request.Context(), title, c.PostForm("author"), total)
	back(c, title, err)
}

func (h *Handler) setProgress(c *gin.Context) {
	title := c.PostForm("title")
	p, err := strconv.Atoi(strings.TrimSpace(c.PostForm("progress")))
	if err != nil {
		back(c, title, progress.ErrInvalidProgress)
		return
	}
	_, err = h.Ctl.SetProgress(c.Request.Context(), models.Book{Title: title}, progress.Clamp(p))
	back(c, title, err)
}

func (h *Handler) step(c *gin.Context) {
	title := c.PostForm("title")
	delta, err := strconv.Atoi(strings.TrimSpace(c.PostForm("delta")))
	if err != nil {
		delta = progress.StepSize
	}
	_, err = h.Ctl.Step(c.Request.Context(), models.Book{Title: title}, delta)
	back(c, title, err)
}

func (h *Handler) done(c *gin.Context) {
	title := c.PostForm("title")
	_, err := h.Ctl.MarkDone(c.Request.Context(), models.Book{Title: title})
	back(c, title, err)
}

func (h *Handler) remove(c *gin.Context) {
	title := c.PostForm("title")
	err := h.Ctl.DeleteBook(c.Request.Context(), models.Book{Title: title})
	back(c, title, err)
}

// back redirects to the page, carrying a failure as inline text.
func back(c *gin.Context, title string, err error) {
	if err == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	log.Printf("[web] %s %q: %v", c.Request.URL.Path, title, err)
	msg := message(err)
	if t := strings.TrimSpace(title); t != "" {
		msg = fmt.Sprintf("%q: %s", t, msg)
	}
	c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(msg))
}

// message turns an error into text for the reader.
func message(err error) string {
	var partial *sheet.PartialWriteError
	switch {
	case errors.As(err, &partial):
		return "the sheet was only partly updated, check the row by hand (" + partial.Err.Error() + ")"
	case errors.Is(err, sheet.ErrUnavailable):
		return "could not reach the sheet store: " + err.Error()
	case errors.Is(err, progress.ErrNotFound):
		return "book not found, it may have been changed elsewhere"
	case errors.Is(err, progress.ErrAmbiguousTitle):
		return "several rows share this title, rename one in the sheet"
	case errors.Is(err, progress.ErrDuplicateTitle),
		errors.Is(err, progress.ErrTitleRequired),
		errors.Is(err, progress.ErrAuthorRequired),
		errors.Is(err, progress.ErrInvalidTotal),
		errors.Is(err, progress.ErrInvalidProgress),
		errors.Is(err, progress.ErrBookDone),
		errors.Is(err, progress.ErrNotDone):
		return rootMessage(err)
	default:
		return err.Error()
	}
}

// rootMessage drops the wrapping context and keeps the sentinel's text.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
