package progress

import (
	"errors"

	"readlist/pkg/models"
)

var (
	ErrNotFound       = errors.New("book not found")
	ErrAmbiguousTitle = errors.New("more than one book has this title")
	ErrDuplicateTitle = errors.New("a book with this title already exists")
	ErrTitleRequired  = errors.New("title is required")
	ErrAuthorRequired = errors.New("author is required")
	ErrInvalidTotal   = errors.New("total pages must be at least 1")
	ErrNotDone        = errors.New("only finished books can be deleted")
	ErrNotConfirmed   = errors.New("write was not visible on re-read")

	ErrBookDone        = models.ErrBookDone
	ErrInvalidProgress = models.ErrInvalidProgress
)
