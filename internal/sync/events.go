package sync

import (
	"time"

	"github.com/google/uuid"

	"readlist/pkg/models"
)

const (
	EventBookAdded    = "book.added"
	EventBookProgress = "book.progress"
	EventBookDone     = "book.done"
	EventBookDeleted  = "book.deleted"
)

// BookEvent is one line of the change feed. Listeners re-read the sheet on
// receipt; the payload is a hint, not state.
type BookEvent struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Progress int       `json:"progress"`
	Status   string    `json:"status"`
	Date     string    `json:"date,omitempty"`
	At       time.Time `json:"at"`
}

func NewBookEvent(action models.Action, b models.Book) BookEvent {
	return BookEvent{
		ID:       uuid.NewString(),
		Type:     eventType(action),
		Title:    b.Title,
		Progress: b.Progress,
		Status:   string(b.Status),
		Date:     b.Date,
		At:       time.Now().UTC(),
	}
}

func eventType(action models.Action) string {
	switch action {
	case models.ActionAdd:
		return EventBookAdded
	case models.ActionDone:
		return EventBookDone
	case models.ActionDelete:
		return EventBookDeleted
	default:
		return EventBookProgress
	}
}
