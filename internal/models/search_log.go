package models

import "time"

// SearchLogEntry records one committed search.
type SearchLogEntry struct {
	ID          int64     `json:"id"`
	ViewerID    string    `json:"viewer_id,omitempty"`
	SessionID   string    `json:"session_id,omitempty"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// PopularSearch aggregates identical committed queries.
type PopularSearch struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}
