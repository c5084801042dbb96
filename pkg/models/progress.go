package models

import "time"

type Action string

const (
	ActionAdd      Action = "add"
	ActionProgress Action = "progress"
	ActionDone     Action = "done"
	ActionDelete   Action = "delete"
)

// ProgressEntry is one line of the local history journal.
type ProgressEntry struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Action   Action    `json:"action"`
	Progress int       `json:"progress"`
	Status   Status    `json:"status"`
	Date     string    `json:"date,omitempty"`
	At       time.Time `json:"at"`
}
