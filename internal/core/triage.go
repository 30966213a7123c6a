package core

import (
	"regexp"
	"sort"
	"strings"

	"github.com/valter-silva-au/remedy/pkg/models"
)

// Default label and keyword sets for the triage scorer. Each can be
// overridden through TriageConfig.

var defaultFriendlyLabels = []string{
	"good first issue",
	"good-first-issue",
	"help wanted",
	"help-wanted",
	"beginner",
	"beginner-friendly",
	"easy",
	"low-hanging-fruit",
	"starter",
	"first-timers-only",
	"documentation",
	"docs",
	"typo",
}

var defaultSkipLabels = []string{
	"wontfix",
	"won't fix",
	"invalid",
	"duplicate",
	"question",
	"discussion",
	"needs-discussion",
	"breaking-change",
	"breaking",
	"security",
}

var defaultEasyKeywords = []string{
	"typo", "typos",
	"spelling",
	"grammar",
	"documentation",
	"readme",
	"comment",
	"rename",
	"format",
	"formatting",
	"indent",
	"whitespace",
	"missing",
	"add",
	"update",
	"fix link",
	"broken link",
}

// fileMentionPattern matches filename-like tokens with a known source-file
// extension, used to estimate how many files an issue touches.
var fileMentionPattern = regexp.MustCompile(`\b\w+\.(py|js|ts|go|rs|java|cpp|c|h)\b`)

// IssueSelector filters, scores, and ranks candidate issues. Scoring is pure
// and deterministic: the same issue always receives the same difficulty, and
// an already-scored issue is never re-scored.
type IssueSelector interface {
	// Filter drops issues that should never reach the scorer: claimed
	// issues and issues carrying a skip label.
	Filter(issues []models.Issue) []models.Issue
	// Score assigns a 1-5 difficulty (1 easiest), a recommendation, and an
	// estimated affected-file count. Idempotent.
	Score(issue *models.Issue) int
	// Best filters, scores every survivor, sorts ascending by
	// (difficulty, comment count), and returns the first n.
	Best(issues []models.Issue, n int) []models.Issue
}

type issueSelector struct {
	friendlyLabels map[string]bool
	skipLabels     map[string]bool
	easyKeywords   []string
}

// NewIssueSelector creates an IssueSelector. Empty config slices fall back
// to the built-in defaults.
func NewIssueSelector(cfg models.TriageConfig) IssueSelector {
	friendly := cfg.FriendlyLabels
	if len(friendly) == 0 {
		friendly = defaultFriendlyLabels
	}
	skip := cfg.SkipLabels
	if len(skip) == 0 {
		skip = defaultSkipLabels
	}
	keywords := cfg.EasyKeywords
	if len(keywords) == 0 {
		keywords = defaultEasyKeywords
	}

	return &issueSelector{
		friendlyLabels: toLowerSet(friendly),
		skipLabels:     toLowerSet(skip),
		easyKeywords:   lowerAll(keywords),
	}
}

func toLowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func (s *issueSelector) Filter(issues []models.Issue) []models.Issue {
	var result []models.Issue
	for _, issue := range issues {
		// Already claimed by someone.
		if len(issue.Assignees) > 0 {
			continue
		}
		skip := false
		for _, label := range issue.Labels {
			if s.skipLabels[strings.ToLower(label)] {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		result = append(result, issue)
	}
	return result
}

func (s *issueSelector) hasFriendlyLabel(issue *models.Issue) bool {
	for _, label := range issue.Labels {
		if s.friendlyLabels[strings.ToLower(label)] {
			return true
		}
	}
	return false
}

func (s *issueSelector) Score(issue *models.Issue) int {
	if issue.Scored() {
		return issue.DifficultyScore
	}

	// Baseline: medium difficulty. Fractional adjustments accumulate and
	// are truncated toward zero before clamping; the order matters for
	// which issues end up recommended, so keep it.
	score := 3.0

	titleLower := strings.ToLower(issue.Title)
	bodyLower := strings.ToLower(issue.Body)

	if s.hasFriendlyLabel(issue) {
		score--
	}

	// First matching keyword only, no stacking.
	for _, keyword := range s.easyKeywords {
		if strings.Contains(titleLower, keyword) || strings.Contains(bodyLower, keyword) {
			score--
			break
		}
	}

	if len(issue.Body) < 200 {
		score -= 0.5
	}
	if len(issue.Body) > 1000 {
		score++
	}

	// Heavy discussion suggests contention or complexity.
	if issue.Comments > 10 {
		score++
	} else if issue.Comments > 5 {
		score += 0.5
	}

	fileMentions := len(fileMentionPattern.FindAllString(issue.Body, -1))
	if fileMentions > 3 {
		score++
	}
	issue.EstimatedFiles = fileMentions
	if issue.EstimatedFiles < 1 {
		issue.EstimatedFiles = 1
	}

	final := int(score)
	if final < 1 {
		final = 1
	}
	if final > 5 {
		final = 5
	}
	issue.DifficultyScore = final
	issue.Recommendation = s.recommendation(issue, final)
	return final
}

// recommendation derives the human-readable triage verdict from the signals
// that fired.
func (s *issueSelector) recommendation(issue *models.Issue, score int) string {
	var reasons []string

	if s.hasFriendlyLabel(issue) {
		reasons = append(reasons, "has a friendly label")
	}

	titleLower := strings.ToLower(issue.Title)
	if containsAny(titleLower, "typo", "spelling", "grammar") {
		reasons = append(reasons, "spelling/grammar fix")
	} else if containsAny(titleLower, "doc", "readme") {
		reasons = append(reasons, "documentation update")
	}

	if issue.Comments == 0 {
		reasons = append(reasons, "no comments yet")
	}

	switch {
	case score <= 2:
		if len(reasons) > 0 {
			return "recommended: " + strings.Join(reasons, ", ")
		}
		return "recommended"
	case score == 3:
		if len(reasons) > 0 {
			return "worth a try: " + strings.Join(reasons, ", ")
		}
		return "medium difficulty"
	default:
		return "high difficulty, consider skipping"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (s *issueSelector) Best(issues []models.Issue, n int) []models.Issue {
	filtered := s.Filter(issues)
	for i := range filtered {
		s.Score(&filtered[i])
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].DifficultyScore != filtered[j].DifficultyScore {
			return filtered[i].DifficultyScore < filtered[j].DifficultyScore
		}
		return filtered[i].Comments < filtered[j].Comments
	})

	if n < 0 {
		n = 0
	}
	if n > len(filtered) {
		n = len(filtered)
	}
	return filtered[:n]
}
