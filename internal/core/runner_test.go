package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/pkg/models"
)

func TestRunner_CloneFreshRepo(t *testing.T) {
	registry, _ := newTestRegistry(t)
	git := newFakeGit()
	workDir := t.TempDir()
	runner := NewTaskRunner(workDir, registry, git, &fakeFixer{}, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	if err := runner.CloneRepo(task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !git.ran("clone") {
		t.Fatal("expected a clone command")
	}
	if git.ran("pull") {
		t.Fatal("fresh checkout should not pull")
	}

	got, _ := registry.Get(task.ID)
	if got.Status != models.TaskCloned {
		t.Fatalf("status = %s, want %s", got.Status, models.TaskCloned)
	}
	wantPath := filepath.Join(workDir, "widget")
	if got.LocalPath != wantPath {
		t.Fatalf("local path = %q, want %q", got.LocalPath, wantPath)
	}
}

func TestRunner_ClonePullsWhenCheckoutExists(t *testing.T) {
	registry, _ := newTestRegistry(t)
	git := newFakeGit()
	workDir := t.TempDir()
	runner := NewTaskRunner(workDir, registry, git, &fakeFixer{}, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	if err := os.MkdirAll(filepath.Join(workDir, "widget"), 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := runner.CloneRepo(task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !git.ran("pull") {
		t.Fatal("existing checkout should be updated with pull")
	}
	if git.ran("clone") {
		t.Fatal("existing checkout should not be re-cloned")
	}
}

func TestRunner_CloneFailureMovesTaskToError(t *testing.T) {
	registry, _ := newTestRegistry(t)
	git := newFakeGit()
	workDir := t.TempDir()
	runner := NewTaskRunner(workDir, registry, git, &fakeFixer{}, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	dest := filepath.Join(workDir, "widget")
	git.results[git.key([]string{"clone", task.RepoURL, dest})] = integration.GitResult{
		ExitCode: 128,
		Stderr:   "fatal: repository not found",
	}

	err := runner.CloneRepo(task.ID)
	if err == nil {
		t.Fatal("expected an error")
	}

	got, _ := registry.Get(task.ID)
	if got.Status != models.TaskError {
		t.Fatalf("status = %s, want %s", got.Status, models.TaskError)
	}
	if !strings.Contains(got.Error, "repository not found") {
		t.Fatalf("task error %q does not carry the git stderr", got.Error)
	}
	if got.LocalPath != "" {
		t.Fatal("failed clone must not record a local path")
	}
}

func TestRunner_CloneUnknownTask(t *testing.T) {
	registry, _ := newTestRegistry(t)
	git := newFakeGit()
	runner := NewTaskRunner(t.TempDir(), registry, git, &fakeFixer{}, testBus())

	if err := runner.CloneRepo("42"); err == nil {
		t.Fatal("expected an error for an unknown id")
	}
	if len(git.commands) != 0 {
		t.Fatal("no git command should run for an unknown id")
	}
}

func TestRunner_CloneRejectsInFlightTask(t *testing.T) {
	registry, _ := newTestRegistry(t)
	runner := NewTaskRunner(t.TempDir(), registry, newFakeGit(), &fakeFixer{}, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	registry.Update(task.ID, func(t *models.Task) { t.Status = models.TaskReviewing })

	if err := runner.CloneRepo(task.ID); err == nil {
		t.Fatal("expected an error for an in-flight task")
	}
}

func TestRunner_ReviewStreamsOutput(t *testing.T) {
	registry, _ := newTestRegistry(t)
	fixer := &fakeFixer{lines: []string{"scanning files", "found 2 issues"}}
	bus := testBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	runner := NewTaskRunner(t.TempDir(), registry, newFakeGit(), fixer, bus)
	task := registry.Create("https://github.com/acme/widget.git")
	registry.Update(task.ID, func(t *models.Task) {
		t.Status = models.TaskCloned
		t.LocalPath = "/tmp/somewhere"
	})

	if err := runner.ReviewRepo(task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := registry.Get(task.ID)
	if got.Status != models.TaskCompleted {
		t.Fatalf("status = %s, want %s", got.Status, models.TaskCompleted)
	}
	if !strings.Contains(got.Output, "scanning files\n") || !strings.Contains(got.Output, "found 2 issues\n") {
		t.Fatalf("output %q missing streamed lines", got.Output)
	}

	var outputLines []string
	for len(events) > 0 {
		ev := <-events
		if ev.Kind == observability.KindOutput {
			outputLines = append(outputLines, ev.Line)
		}
	}
	if len(outputLines) != 2 {
		t.Fatalf("got %d output events, want 2", len(outputLines))
	}
}

func TestRunner_ReviewRequiresLocalCheckout(t *testing.T) {
	registry, _ := newTestRegistry(t)
	runner := NewTaskRunner(t.TempDir(), registry, newFakeGit(), &fakeFixer{}, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	if err := runner.ReviewRepo(task.ID); err == nil {
		t.Fatal("expected an error when no checkout exists")
	}
}

func TestRunner_ReviewNonZeroExitMovesTaskToError(t *testing.T) {
	registry, _ := newTestRegistry(t)
	fixer := &fakeFixer{lines: []string{"partial output"}, exitCode: 2}
	runner := NewTaskRunner(t.TempDir(), registry, newFakeGit(), fixer, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	registry.Update(task.ID, func(t *models.Task) {
		t.Status = models.TaskCloned
		t.LocalPath = "/tmp/somewhere"
	})

	if err := runner.ReviewRepo(task.ID); err == nil {
		t.Fatal("expected an error")
	}
	got, _ := registry.Get(task.ID)
	if got.Status != models.TaskError {
		t.Fatalf("status = %s, want %s", got.Status, models.TaskError)
	}
	// Output produced before the failure is kept.
	if !strings.Contains(got.Output, "partial output") {
		t.Fatal("partial output was lost on failure")
	}
}

func TestRunner_RunFullClonesThenReviews(t *testing.T) {
	registry, _ := newTestRegistry(t)
	git := newFakeGit()
	fixer := &fakeFixer{lines: []string{"all good"}}
	runner := NewTaskRunner(t.TempDir(), registry, git, fixer, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	if err := runner.RunFull(task.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := registry.Get(task.ID)
	if got.Status != models.TaskCompleted {
		t.Fatalf("status = %s, want %s", got.Status, models.TaskCompleted)
	}
	if got.LocalPath == "" {
		t.Fatal("full run should record the checkout path")
	}
}

func TestRunner_RerunsFailedAndCompletedTasks(t *testing.T) {
	registry, _ := newTestRegistry(t)
	git := newFakeGit()
	workDir := t.TempDir()
	runner := NewTaskRunner(workDir, registry, git, &fakeFixer{lines: []string{"looks fine"}}, testBus())

	task := registry.Create("https://github.com/acme/widget.git")
	cloneKey := "clone https://github.com/acme/widget.git " + filepath.Join(workDir, "widget")
	git.results[cloneKey] = integration.GitResult{ExitCode: 128, Stderr: "network down"}

	if err := runner.RunFull(task.ID); err == nil {
		t.Fatal("expected the first run to fail")
	}
	got, _ := registry.Get(task.ID)
	if got.Status != models.TaskError {
		t.Fatalf("status = %s, want %s", got.Status, models.TaskError)
	}

	// Retry once the external cause is gone.
	delete(git.results, cloneKey)
	if err := runner.RunFull(task.ID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	got, _ = registry.Get(task.ID)
	if got.Status != models.TaskCompleted {
		t.Fatalf("status = %s, want %s", got.Status, models.TaskCompleted)
	}

	// A completed task can be refreshed and re-reviewed.
	if err := runner.RunFull(task.ID); err != nil {
		t.Fatalf("rerun of completed task: %v", err)
	}
}
