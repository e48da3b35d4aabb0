package model

import "time"

// RepositorySummary is the slice of GitHub's repository object the client needs
// to render a picker. It is recomputed on every listing and never stored.
//
// JSON names follow GitHub's snake_case so the browser client can consume
// either shape.
type RepositorySummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Private     bool      `json:"private"`
	Description *string   `json:"description"` // null when the repository has none
	UpdatedAt   time.Time `json:"updated_at"`
}
