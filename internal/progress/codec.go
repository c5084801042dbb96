package progress

import (
	"math"
	"strconv"
	"strings"

	"readlist/internal/sheet"
	"readlist/pkg/models"
)

// StepSize is the increment of the -5/+5 controls.
const StepSize = 5

// ComputeReadPages returns floor(total*percent/100). The percentage is clamped
// to 0..100 and an empty or negative total reads as zero pages.
func ComputeReadPages(total, percent int) int {
	if total <= 0 {
		return 0
	}
	return total * Clamp(percent) / 100
}

// Clamp bounds a percentage to 0..100.
func Clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// View is a book together with its derived page count.
type View struct {
	models.Book
	ReadPages int `json:"read_pages"`
}

func NewView(b models.Book) View {
	return View{Book: b, ReadPages: ComputeReadPages(b.Total, b.Progress)}
}

func Views(books []models.Book) []View {
	out := make([]View, len(books))
	for i, b := range books {
		out[i] = NewView(b)
	}
	return out
}

// Decode turns a sheet record into a Book. It never fails: unreadable numbers
// become 0 and progress is clamped.
func Decode(row int, rec sheet.Record) models.Book {
	return models.Book{
		Row:      row,
		Title:    rec["title"],
		Author:   rec["author"],
		Progress: Clamp(parseCellInt(rec["progress"])),
		Total:    max(parseCellInt(rec["total"]), 0),
		Status:   models.ParseStatus(rec["status"]),
		Date:     strings.TrimSpace(rec["date"]),
	}
}

// Encode returns the book's cells in sheet column order.
func Encode(b models.Book) []string {
	return []string{
		b.Title,
		b.Author,
		strconv.Itoa(b.Progress),
		strconv.Itoa(b.Total),
		string(b.Status),
		b.Date,
	}
}

// parseCellInt accepts "42", " 42 " and "42.0"; anything else is 0.
func parseCellInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}
