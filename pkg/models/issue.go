package models

import "time"

// Issue is a read-only triage record for one candidate defect report.
// It is constructed from platform data, scored once, and never persisted;
// the platform remains the source of truth.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Labels    []string  `json:"labels"`
	URL       string    `json:"url"`
	Comments  int       `json:"comments"`
	Assignees []string  `json:"assignees"`
	CreatedAt time.Time `json:"created_at"`

	// Triage-assigned fields, zero until scored.
	DifficultyScore int    `json:"difficulty_score,omitempty"`
	Recommendation  string `json:"recommendation,omitempty"`
	EstimatedFiles  int    `json:"estimated_files,omitempty"`
}

// Scored reports whether triage has already assigned a difficulty.
// Scoring is idempotent, so re-scoring a scored issue must be a no-op.
func (i *Issue) Scored() bool {
	return i.DifficultyScore != 0
}

// PullRequest is the platform's record of an opened pull request.
type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title"`
}
