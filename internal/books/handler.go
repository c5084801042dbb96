package books

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"readlist/internal/progress"
	"readlist/internal/sheet"
	"readlist/pkg/models"
)

type Handler struct {
	Ctl *progress.Controller
}

func NewHandler(ctl *progress.Controller) *Handler {
	return &Handler{Ctl: ctl}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/books", h.list)
	rg.POST("/books", h.add)
	rg.GET("/books/:title", h.getOne)
	rg.DELETE("/books/:title", h.remove)
	rg.PUT("/books/:title/progress", h.setProgress)
	rg.POST("/books/:title/step", h.step)
	rg.POST("/books/:title/done", h.done)
}

type addReq struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Total  int    `json:"total"`
}

type progressReq struct {
	Progress *int `json:"progress"`
}

type stepReq struct {
	Delta *int `json:"delta"`
}

func (h *Handler) list(c *gin.Context) {
	var want models.Status
	if s := strings.TrimSpace(c.Query("status")); s != "" {
		switch models.Status(strings.ToLower(s)) {
		case models.StatusReading:
			want = models.StatusReading
		case models.StatusDone:
			want = models.StatusDone
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be reading or done"})
			return
		}
	}

	all, err := h.Ctl.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]progress.View, 0, len(all))
	for _, b := range all {
		if want == "" || b.Status == want {
			items = append(items, progress.NewView(b))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) getOne(c *gin.Context) {
	b, err := h.Ctl.Lookup(c.Request.Context(), c.Param("title"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress.NewView(b))
}

func (h *Handler) add(c *gin.Context) {
	var req addReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	b, err := h.Ctl.AddBook(c.Request.Context(), req.Title, req.Author, req.Total)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, progress.NewView(b))
}

func (h *Handler) setProgress(c *gin.Context) {
	var req progressReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Progress == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "progress required"})
		return
	}

	b, err := h.Ctl.SetProgress(c.Request.Context(), models.Book{Title: c.Param("title")}, *req.Progress)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress.NewView(b))
}

// step takes an optional {"delta": n}; an empty body steps forward by StepSize.
func (h *Handler) step(c *gin.Context) {
	delta := progress.StepSize
	if c.Request.ContentLength != 0 {
		var req stepReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.Delta != nil {
			delta = *req.Delta
		}
	}

	b, err := h.Ctl.Step(c.Request.Context(), models.Book{Title: c.Param("title")}, delta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress.NewView(b))
}

func (h *Handler) done(c *gin.Context) {
	b, err := h.Ctl.MarkDone(c.Request.Context(), models.Book{Title: c.Param("title")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress.NewView(b))
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.Ctl.DeleteBook(c.Request.Context(), models.Book{Title: c.Param("title")}); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func writeError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{"error": err.Error()})
}

// StatusFor maps controller and store errors to HTTP status codes.
func StatusFor(err error) int {
	var partial *sheet.PartialWriteError
	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError
	case errors.Is(err, sheet.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, progress.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, progress.ErrAmbiguousTitle),
		errors.Is(err, progress.ErrDuplicateTitle),
		errors.Is(err, progress.ErrBookDone),
		errors.Is(err, progress.ErrNotDone):
		return http.StatusConflict
	case errors.Is(err, progress.ErrTitleRequired),
		errors.Is(err, progress.ErrAuthorRequired),
		errors.Is(err, progress.ErrInvalidTotal),
		errors.Is(err, progress.ErrInvalidProgress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
