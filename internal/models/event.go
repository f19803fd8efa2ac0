package models

import "time"

// Event is a calendar entry
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	CreatedByID *int64    `json:"created_by_id,omitempty"`
	Category    string    `json:"category,omitempty"`
}

// EventRequest is the event create/update payload
type EventRequest struct {
	Title    string    `json:"title"`
	StartAt  time.Time `json:"startAt"`
	EndAt    time.Time `json:"endAt"`
	Category string    `json:"category"`
}
