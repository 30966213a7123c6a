package models

// FixState represents the current step of a fix workflow attempt.
// Progression is strictly forward; FixError absorbs failures from any
// non-terminal state.
type FixState string

const (
	FixPending    FixState = "pending"
	FixBranching  FixState = "branching"
	FixFixing     FixState = "fixing"
	FixReviewing  FixState = "reviewing"
	FixDiffReady  FixState = "diff_ready"
	FixCommitting FixState = "committing"
	FixPushing    FixState = "pushing"
	FixCreatingPR FixState = "creating_pr"
	FixCompleted  FixState = "completed"
	FixError      FixState = "error"
)

// fixOrder gives each forward state its pipeline position, used to enforce
// the no-revisit rule.
var fixOrder = map[FixState]int{
	FixPending:    0,
	FixBranching:  1,
	FixFixing:     2,
	FixReviewing:  3,
	FixDiffReady:  4,
	FixCommitting: 5,
	FixPushing:    6,
	FixCreatingPR: 7,
	FixCompleted:  8,
}

// IsTerminal reports whether s ends the workflow.
func (s FixState) IsTerminal() bool {
	return s == FixCompleted || s == FixError
}

// CanTransition reports whether moving from s to next is allowed: strictly
// forward through the pipeline, or into FixError from any non-terminal state.
func (s FixState) CanTransition(next FixState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == FixError {
		return true
	}
	from, ok := fixOrder[s]
	if !ok {
		return false
	}
	to, ok := fixOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// ReviewFinding is one structured finding produced by the automated reviewer.
type ReviewFinding struct {
	Title      string  `json:"title"`
	Body       string  `json:"body,omitempty"`
	Priority   int     `json:"priority"`
	Confidence float64 `json:"confidence,omitempty"`
	File       string  `json:"file,omitempty"`
	Line       int     `json:"line,omitempty"`
}

// ReviewResult is the structured output of the automated review step.
// Absence of a ReviewResult means no parseable review was produced, which is
// never an error by itself.
type ReviewResult struct {
	Findings           []ReviewFinding `json:"findings"`
	OverallCorrectness string          `json:"overall_correctness,omitempty"`
	OverallConfidence  float64         `json:"overall_confidence,omitempty"`
}

// HighPriorityFindings returns the findings with priority 0 or 1.
func (r *ReviewResult) HighPriorityFindings() []ReviewFinding {
	var out []ReviewFinding
	for _, f := range r.Findings {
		if f.Priority <= 1 {
			out = append(out, f)
		}
	}
	return out
}

// FixResult is the terminal summary of one workflow attempt. It is the only
// value that crosses the workflow's public boundary; faults never do.
type FixResult struct {
	AttemptID   string        `json:"attempt_id" yaml:"attempt_id"`
	IssueNumber int           `json:"issue_number" yaml:"issue_number"`
	IssueTitle  string        `json:"issue_title" yaml:"issue_title"`
	Success     bool          `json:"success" yaml:"success"`
	Status      FixState      `json:"status" yaml:"status"`
	BranchName  string        `json:"branch_name,omitempty" yaml:"branch_name,omitempty"`
	Diff        string        `json:"diff,omitempty" yaml:"diff,omitempty"`
	Review      *ReviewResult `json:"review,omitempty" yaml:"review,omitempty"`
	PRURL       string        `json:"pr_url,omitempty" yaml:"pr_url,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	Output      string        `json:"output,omitempty" yaml:"output,omitempty"`
}
