package core

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/remedy/pkg/models"
)

func TestSelector_EasyIssueScoresLow(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	issue := models.Issue{
		Number:   1,
		Title:    "Fix typo in README",
		Body:     "There is a typo in line 10.", // short body
		Labels:   []string{"good first issue", "documentation"},
		Comments: 0,
	}

	score := selector.Score(&issue)
	if score > 2 {
		t.Errorf("expected difficulty <= 2, got %d", score)
	}
	if issue.EstimatedFiles != 1 {
		t.Errorf("expected estimated files 1, got %d", issue.EstimatedFiles)
	}
	if !strings.Contains(issue.Recommendation, "friendly label") {
		t.Errorf("recommendation missing friendly-label signal: %q", issue.Recommendation)
	}
	if !strings.Contains(issue.Recommendation, "no comments") {
		t.Errorf("recommendation missing no-comments signal: %q", issue.Recommendation)
	}
}

func TestSelector_SkipLabelFilteredBeforeScoring(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	issues := []models.Issue{
		{
			Number:   2,
			Title:    "Refactor authentication system",
			Body:     strings.Repeat("We need to completely redesign the auth flow. ", 70), // ~3000 chars
			Labels:   []string{"enhancement", "breaking-change"},
			Comments: 15,
		},
	}

	if survivors := selector.Filter(issues); len(survivors) != 0 {
		t.Errorf("breaking-change issue should be filtered, got %v", survivors)
	}
	if best := selector.Best(issues, 5); len(best) != 0 {
		t.Errorf("breaking-change issue must never appear in Best, got %v", best)
	}
}

func TestSelector_AssignedIssueNeverSelected(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	issues := []models.Issue{
		{Number: 1, Title: "Fix typo", Body: "typo", Labels: []string{"typo"}, Assignees: []string{"someone"}},
		{Number: 2, Title: "Fix other typo", Body: "typo", Labels: []string{"typo"}},
	}

	best := selector.Best(issues, 5)
	for _, issue := range best {
		if issue.Number == 1 {
			t.Fatal("assigned issue appeared in Best output")
		}
	}
	if len(best) != 1 || best[0].Number != 2 {
		t.Errorf("expected only issue 2, got %v", best)
	}
}

func TestSelector_ScoreSignals(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	tests := []struct {
		name  string
		issue models.Issue
		want  int
	}{
		{
			// 3 - 1 (label) - 1 (keyword "typo") - 0.5 (short) = 0.5 -> 0 -> clamp 1
			name: "all easy signals",
			issue: models.Issue{
				Title:  "typo",
				Body:   "short",
				Labels: []string{"easy"},
			},
			want: 1,
		},
		{
			// 3 - 0.5 (short body) = 2.5 -> truncates to 2, not rounds to 3
			name:  "truncation not rounding",
			issue: models.Issue{Title: "Weird crash on startup", Body: "segfault occurs"},
			want:  2,
		},
		{
			// 3 + 1 (long body) + 1 (comments > 10) = 5
			name: "hard issue",
			issue: models.Issue{
				Title:    "Redesign storage engine",
				Body:     strings.Repeat("lots of detail without easy signal words here ", 30),
				Comments: 15,
			},
			want: 5,
		},
		{
			// 3 - 1 (keyword "add") - 0.5 + 0.5 (comments > 5) = 2
			name: "moderate discussion",
			issue: models.Issue{
				Title:    "Add flag to CLI",
				Body:     "please",
				Comments: 7,
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := tt.issue
			if got := selector.Score(&issue); got != tt.want {
				t.Errorf("expected difficulty %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSelector_FileMentionsRaiseScoreAndEstimate(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	issue := models.Issue{
		Title: "Crash when parsing",
		// 4 distinct filename-like mentions, no easy keywords.
		Body: "the crash involves parser.go and lexer.go plus token.c with helper.h together",
	}
	// 3 + 1 (mentions > 3) - 0.5 (short body) = 3.5 -> 3
	if got := selector.Score(&issue); got != 3 {
		t.Errorf("expected difficulty 3, got %d", got)
	}
	if issue.EstimatedFiles != 4 {
		t.Errorf("expected 4 estimated files, got %d", issue.EstimatedFiles)
	}
}

func TestSelector_ScoreIdempotent(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	issue := models.Issue{Title: "Fix typo", Body: "typo", Labels: []string{"docs"}}
	first := selector.Score(&issue)
	second := selector.Score(&issue)
	if first != second {
		t.Errorf("re-scoring changed the difficulty: %d then %d", first, second)
	}
}

func TestSelector_BestSortsByDifficultyThenComments(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	issues := []models.Issue{
		{Number: 1, Title: "Hard redesign problem", Body: strings.Repeat("complicated design question ", 50), Comments: 12},
		{Number: 2, Title: "Fix typo", Body: "typo here", Labels: []string{"typo"}, Comments: 3},
		{Number: 3, Title: "Fix other typo", Body: "another typo", Labels: []string{"typo"}, Comments: 0},
	}

	best := selector.Best(issues, 3)
	if len(best) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(best))
	}
	// Issues 2 and 3 tie on difficulty; fewer comments wins.
	if best[0].Number != 3 || best[1].Number != 2 || best[2].Number != 1 {
		t.Errorf("wrong order: %d, %d, %d", best[0].Number, best[1].Number, best[2].Number)
	}
}

func TestSelector_BestClampsRequestedCount(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{})

	issues := []models.Issue{
		{Number: 1, Title: "Fix typo", Body: "typo here"},
		{Number: 2, Title: "Fix other typo", Body: "another typo"},
	}

	if got := selector.Best(issues, -1); len(got) != 0 {
		t.Errorf("negative count should yield no issues, got %d", len(got))
	}
	if got := selector.Best(issues, 0); len(got) != 0 {
		t.Errorf("zero count should yield no issues, got %d", len(got))
	}
	if got := selector.Best(issues, 10); len(got) != 2 {
		t.Errorf("oversized count should yield all issues, got %d", len(got))
	}
}

func TestSelector_CustomSkipLabels(t *testing.T) {
	selector := NewIssueSelector(models.TriageConfig{SkipLabels: []string{"frozen"}})

	issues := []models.Issue{
		{Number: 1, Title: "a", Body: "b", Labels: []string{"frozen"}},
		// "duplicate" is only in the default set, which the custom set
		// replaced.
		{Number: 2, Title: "a", Body: "b", Labels: []string{"duplicate"}},
	}

	survivors := selector.Filter(issues)
	if len(survivors) != 1 || survivors[0].Number != 2 {
		t.Errorf("custom skip set not honored: %v", survivors)
	}
}
