package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// noChangesSentinel is the diff recorded when the fixer produced no
// observable working-tree change.
const noChangesSentinel = "no changes detected"

// FixOptions controls how far a fix attempt progresses past its checkpoints.
// With everything false the attempt stops at DIFF_READY, the human-in-the-loop
// gate.
type FixOptions struct {
	AutoCommit bool
	AutoPush   bool
	AutoPR     bool
	// Owner and Repo name the target repository for pull-request creation.
	Owner string
	Repo  string
}

// FixWorkflow runs the remediation pipeline for one issue inside a task's
// local checkout: branch, external fix, diff capture, automated review,
// commit, push, pull request. It borrows the checkout only for the duration
// of one Run call.
//
// Run always returns a terminal FixResult; no fault crosses this boundary.
type FixWorkflow interface {
	Run(ctx context.Context, issue models.Issue, opts FixOptions) *models.FixResult
}

type fixWorkflow struct {
	repoPath  string
	reportDir string
	git       integration.GitClient
	fixer     integration.Fixer
	platform  integration.Platform // nil when no credential is configured
	bus       observability.Bus
}

// NewFixWorkflow creates a FixWorkflow over the given checkout. platform may
// be nil; pull-request creation then stops at its checkpoint. reportDir may
// be empty to skip the attempt report artifact.
func NewFixWorkflow(repoPath, reportDir string, git integration.GitClient, fixer integration.Fixer, platform integration.Platform, bus observability.Bus) FixWorkflow {
	return &fixWorkflow{
		repoPath:  repoPath,
		reportDir: reportDir,
		git:       git,
		fixer:     fixer,
		platform:  platform,
		bus:       bus,
	}
}

// attempt carries the mutable state of one Run call.
type attempt struct {
	workflow *fixWorkflow
	result   *models.FixResult
}

// setStatus advances the attempt's state and publishes a status event.
// The transition table is enforced: a step can never move the pipeline
// backwards.
func (a *attempt) setStatus(state models.FixState, message string) {
	if state == a.result.Status {
		// Same-state progress update, message only.
		a.workflow.bus.Publish(observability.FixStatusEvent(a.result.AttemptID, state, message))
		return
	}
	if !a.result.Status.CanTransition(state) {
		// A programming error in step ordering, not an external failure.
		a.log(fmt.Sprintf("illegal transition %s -> %s suppressed", a.result.Status, state))
		return
	}
	a.result.Status = state
	a.workflow.bus.Publish(observability.FixStatusEvent(a.result.AttemptID, state, message))
}

// log appends one line to the attempt's cumulative output and streams it.
func (a *attempt) log(line string) {
	a.result.Output += line + "\n"
	a.workflow.bus.Publish(observability.OutputEvent(a.result.AttemptID, line))
}

// fail records the terminal error state.
func (a *attempt) fail(cause string) {
	a.result.Error = cause
	a.setStatus(models.FixError, cause)
	a.log("error: " + cause)
}

func (w *fixWorkflow) Run(ctx context.Context, issue models.Issue, opts FixOptions) (result *models.FixResult) {
	result = &models.FixResult{
		AttemptID:   uuid.NewString(),
		IssueNumber: issue.Number,
		IssueTitle:  issue.Title,
		Status:      models.FixPending,
	}
	a := &attempt{workflow: w, result: result}

	observability.FixAttemptsStarted.Inc()
	defer func() {
		// The workflow boundary: convert any escaped fault into the error
		// state rather than letting it cross to the caller.
		if r := recover(); r != nil {
			a.fail(fmt.Sprintf("internal fault: %v", r))
		}
		observability.FixAttemptsFinished.WithLabelValues(string(result.Status)).Inc()
		w.writeReport(a)
	}()

	// Step 1: branch.
	a.setStatus(models.FixBranching, fmt.Sprintf("creating branch fix/issue-%d...", issue.Number))
	branch, err := w.createFixBranch(issue.Number)
	if err != nil {
		a.fail(fmt.Sprintf("creating branch: %v", err))
		return result
	}
	result.BranchName = branch
	a.log("created branch: " + branch)

	// Step 2: external fix.
	a.setStatus(models.FixFixing, "fixer is analyzing and applying changes...")
	fixOutcome, err := w.fixer.FixIssue(w.repoPath, issue.Title, issue.Body, nil, a.log)
	if err != nil {
		a.fail(fmt.Sprintf("running fixer: %v", err))
		return result
	}
	if fixOutcome.ExitCode != 0 {
		a.fail(fmt.Sprintf("fixer failed with exit code %d", fixOutcome.ExitCode))
		return result
	}
	a.log("fixer finished")

	// Step 3: capture the diff. This step never fails the workflow.
	a.setStatus(models.FixReviewing, "capturing changes...")
	result.Diff = w.captureDiff()
	a.log("=== diff ===\n" + result.Diff)

	// Step 4: automated review, only when there is something to review.
	if result.Diff == noChangesSentinel {
		a.log("warning: no code changes were made, skipping review")
	} else {
		w.reviewDiff(a)
	}

	// Checkpoint: wait for human confirmation unless auto-commit was
	// requested. Stopping here is a success.
	a.setStatus(models.FixDiffReady, "fix ready, awaiting confirmation...")
	if !opts.AutoCommit {
		result.Success = true
		return result
	}

	// Step 5: commit.
	a.setStatus(models.FixCommitting, "committing changes...")
	if err := w.commit(issue.Number, issue.Title, a); err != nil {
		a.fail(fmt.Sprintf("committing: %v", err))
		return result
	}

	if !opts.AutoPush {
		result.Success = true
		return result
	}

	// Step 6: push.
	a.setStatus(models.FixPushing, fmt.Sprintf("pushing branch %s...", branch))
	if pushResult := w.git.Run(w.repoPath, "push", "-u", "origin", branch); !pushResult.Ok() {
		a.fail(fmt.Sprintf("pushing: %s", pushResult.Stderr))
		return result
	}
	a.log("pushed to origin/" + branch)

	if !opts.AutoPR || opts.Owner == "" || opts.Repo == "" || w.platform == nil {
		result.Success = true
		return result
	}

	// Step 7: pull request.
	a.setStatus(models.FixCreatingPR, "creating pull request...")
	prURL, err := w.createPR(ctx, issue, branch, opts)
	if err != nil {
		a.fail(fmt.Sprintf("creating pull request: %v", err))
		return result
	}
	result.PRURL = prURL
	a.log("pull request created: " + prURL)

	a.setStatus(models.FixCompleted, "fix completed")
	result.Success = true
	return result
}

// createFixBranch synchronizes the default branch and checks out (or
// creates) the deterministic fix branch for the issue.
func (w *fixWorkflow) createFixBranch(issueNumber int) (string, error) {
	branch := fmt.Sprintf("fix/issue-%d", issueNumber)
	defaultBranch := w.git.DefaultBranch(w.repoPath)

	if result := w.git.Run(w.repoPath, "checkout", defaultBranch); !result.Ok() {
		return "", fmt.Errorf("checking out %s: %s", defaultBranch, result.Stderr)
	}
	// A failing pull leaves us on a stale base, which the push or PR step
	// will surface; it does not block branching.
	_ = w.git.Run(w.repoPath, "pull", "origin", defaultBranch)

	if w.git.BranchExists(w.repoPath, branch) {
		if result := w.git.Run(w.repoPath, "checkout", branch); !result.Ok() {
			return "", fmt.Errorf("checking out existing branch %s: %s", branch, result.Stderr)
		}
		return branch, nil
	}

	if result := w.git.Run(w.repoPath, "checkout", "-b", branch); !result.Ok() {
		return "", fmt.Errorf("creating branch %s: %s", branch, result.Stderr)
	}
	return branch, nil
}

// captureDiff returns the union of staged and unstaged changes, falling back
// to a porcelain status summary and finally to the no-changes sentinel.
func (w *fixWorkflow) captureDiff() string {
	staged := w.git.Run(w.repoPath, "diff", "--cached")
	unstaged := w.git.Run(w.repoPath, "diff")

	var diff strings.Builder
	if staged.Stdout != "" {
		diff.WriteString("=== Staged Changes ===\n" + staged.Stdout + "\n")
	}
	if unstaged.Stdout != "" {
		diff.WriteString("=== Unstaged Changes ===\n" + unstaged.Stdout + "\n")
	}
	if diff.Len() > 0 {
		return diff.String()
	}

	// Untracked files show up in status but not in either diff.
	status := w.git.Run(w.repoPath, "status", "--porcelain")
	if status.Stdout != "" {
		return "=== File Status ===\n" + status.Stdout
	}
	return noChangesSentinel
}

// reviewDiff runs the automated review over the captured diff and attempts
// to extract its structured findings. Nothing in here can fail the workflow.
func (w *fixWorkflow) reviewDiff(a *attempt) {
	a.setStatus(models.FixReviewing, "reviewing code changes...")

	outcome, err := w.fixer.ReviewDiff(w.repoPath, a.result.Diff, a.log)
	if err != nil || outcome.ExitCode != 0 {
		a.log("warning: automated review did not complete, continuing without it")
		return
	}
	a.log("code review finished")

	review, ok := parseReview(outcome.Transcript)
	if !ok {
		a.log("review output present but not parseable as structured findings")
		return
	}
	a.result.Review = review

	if critical := review.HighPriorityFindings(); len(critical) > 0 {
		a.log(fmt.Sprintf("warning: %d high-priority findings", len(critical)))
		for _, f := range critical {
			a.log(fmt.Sprintf("  - [P%d] %s", f.Priority, f.Title))
		}
	}
	if review.OverallCorrectness != "" {
		a.log("review verdict: " + review.OverallCorrectness)
	}
}

// parseReview locates the JSON object embedded in the reviewer transcript
// and decodes it, repairing near-JSON when needed. A false return means the
// attempt proceeds without structured findings.
func parseReview(transcript string) (*models.ReviewResult, bool) {
	start := strings.Index(transcript, "{")
	end := strings.LastIndex(transcript, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	raw := transcript[start : end+1]

	var review models.ReviewResult
	if err := json.Unmarshal([]byte(raw), &review); err != nil {
		// LLM output is frequently almost-JSON; try to repair it before
		// giving up.
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return nil, false
		}
		if err := json.Unmarshal([]byte(repaired), &review); err != nil {
			return nil, false
		}
	}
	return &review, true
}

// commit stages everything and commits with the deterministic message.
// "Nothing to commit" is a soft warning, since the fixer may have made no
// textual changes.
func (w *fixWorkflow) commit(issueNumber int, issueTitle string, a *attempt) error {
	w.git.Run(w.repoPath, "add", "-A")

	message := fmt.Sprintf("fix: resolve issue #%d - %s", issueNumber, issueTitle)
	result := w.git.Run(w.repoPath, "commit", "-m", message)
	if !result.Ok() {
		if strings.Contains(result.Stdout, "nothing to commit") || strings.Contains(result.Stderr, "nothing to commit") {
			a.log("warning: nothing to commit")
			return nil
		}
		return fmt.Errorf("%s", result.Stderr)
	}
	a.log("committed: " + message)
	return nil
}

// createPR opens the pull request, prefixing the head reference with the
// acting user when the target repository belongs to someone else.
func (w *fixWorkflow) createPR(ctx context.Context, issue models.Issue, branch string, opts FixOptions) (string, error) {
	title := fmt.Sprintf("Fix #%d: %s", issue.Number, issue.Title)
	body := fmt.Sprintf(`## Summary
This PR fixes #%d.

## Changes
- Automated fix generated by remedy

## Related Issue
Closes #%d
`, issue.Number, issue.Number)

	username := w.platform.CurrentIdentity()
	head := username + ":" + branch
	if repoOwner, err := w.platform.RepositoryOwner(ctx, opts.Owner, opts.Repo); err == nil && repoOwner == username {
		// Same-repository PRs use the bare branch name.
		head = branch
	}

	pr, err := w.platform.CreatePullRequest(ctx, opts.Owner, opts.Repo, title, body, head, w.git.DefaultBranch(w.repoPath))
	if err != nil {
		return "", err
	}
	return pr.URL, nil
}

// writeReport persists the terminal FixResult as a YAML artifact so an
// attempt's summary survives even when the caller discards the result.
func (w *fixWorkflow) writeReport(a *attempt) {
	if w.reportDir == "" {
		return
	}
	if err := os.MkdirAll(w.reportDir, 0o755); err != nil {
		a.result.Output += "warning: could not create report directory: " + err.Error() + "\n"
		return
	}
	data, err := yaml.Marshal(a.result)
	if err != nil {
		return
	}
	path := filepath.Join(w.reportDir, a.result.AttemptID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.result.Output += "warning: could not write attempt report: " + err.Error() + "\n"
	}
}
