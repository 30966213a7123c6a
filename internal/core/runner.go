package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// TaskRunner sequences the default pipeline for a task: fetch the repository,
// then run the automated review. One task is worked on by one goroutine at a
// time; the caller must not start a second run while one is in flight (the
// runner rejects it synchronously).
type TaskRunner interface {
	// CloneRepo fetches the task's repository: pull in place when a checkout
	// already exists, fresh clone otherwise. External failures move the task
	// to the error state and are also returned.
	CloneRepo(id string) error
	// ReviewRepo runs the read-only automated review over the task's local
	// checkout, streaming output lines to the bus.
	ReviewRepo(id string) error
	// RunFull composes CloneRepo then ReviewRepo, the single safe entry
	// point for "do the default pipeline."
	RunFull(id string) error
	// RunFullAsync runs RunFull on its own goroutine. Precondition failures
	// (unknown id, already running) are still reported synchronously. Only
	// a long-lived process (the MCP server) may use this; the goroutine
	// dies with the process that spawned it.
	RunFullAsync(id string) error
}

type taskRunner struct {
	workDir  string
	registry TaskRegistry
	git      integration.GitClient
	fixer    integration.Fixer
	bus      observability.Bus
}

// NewTaskRunner creates a TaskRunner that clones into workDir.
func NewTaskRunner(workDir string, registry TaskRegistry, git integration.GitClient, fixer integration.Fixer, bus observability.Bus) TaskRunner {
	return &taskRunner{
		workDir:  workDir,
		registry: registry,
		git:      git,
		fixer:    fixer,
		bus:      bus,
	}
}

// setStatus moves the task to the given state through the registry's
// transition check, persists, and publishes a status event. A rejected
// transition means another goroutine claimed the task first.
func (r *taskRunner) setStatus(id string, state models.TaskState, message string, mutate func(*models.Task)) error {
	err := r.registry.Transition(id, state, func(t *models.Task) {
		t.Message = message
		if mutate != nil {
			mutate(t)
		}
	})
	if err != nil {
		return err
	}
	observability.TaskTransitions.WithLabelValues(string(state)).Inc()
	r.bus.Publish(observability.StatusEvent(id, state, message))
	return nil
}

// fail moves the task to the error state with the given cause.
func (r *taskRunner) fail(id string, cause string) error {
	_ = r.setStatus(id, models.TaskError, cause, func(t *models.Task) {
		t.Error = cause
	})
	return fmt.Errorf("task %s: %s", id, cause)
}

func (r *taskRunner) CloneRepo(id string) error {
	task, ok := r.registry.Get(id)
	if !ok {
		return fmt.Errorf("unknown task id %s", id)
	}
	if task.Status.InFlight() {
		return fmt.Errorf("task %s already has an operation in flight", id)
	}

	repoPath := filepath.Join(r.workDir, task.RepoName)
	repoURL := task.RepoURL

	// Checkout already present means update in place instead of re-cloning.
	_, statErr := os.Stat(repoPath)
	pulling := statErr == nil

	message := fmt.Sprintf("cloning %s...", repoURL)
	if pulling {
		message = "repository exists, pulling latest changes..."
	}
	if err := r.setStatus(id, models.TaskCloning, message, nil); err != nil {
		return err
	}

	var result integration.GitResult
	if pulling {
		result = r.git.Pull(repoPath)
	} else {
		result = r.git.Clone(repoURL, repoPath)
	}

	if !result.Ok() {
		return r.fail(id, fmt.Sprintf("clone failed: %s", result.Stderr))
	}

	// local_path is recorded only once the checkout actually exists.
	return r.setStatus(id, models.TaskCloned, "clone finished", func(t *models.Task) {
		t.LocalPath = repoPath
	})
}

func (r *taskRunner) ReviewRepo(id string) error {
	task, ok := r.registry.Get(id)
	if !ok {
		return fmt.Errorf("unknown task id %s", id)
	}
	if task.Status.InFlight() {
		return fmt.Errorf("task %s already has an operation in flight", id)
	}
	localPath := task.LocalPath
	if localPath == "" {
		return fmt.Errorf("task %s has no local checkout to review", id)
	}

	if err := r.setStatus(id, models.TaskReviewing, "starting automated code review...", nil); err != nil {
		return err
	}

	result, err := r.fixer.ReviewRepo(localPath, func(line string) {
		// Per-line accumulation takes the non-durable fast path; the
		// terminal status update below persists the full output.
		r.registry.Mutate(id, func(t *models.Task) {
			t.Output += line + "\n"
		})
		r.bus.Publish(observability.OutputEvent(id, line))
	})
	if err != nil {
		return r.fail(id, fmt.Sprintf("review tool error: %v", err))
	}
	if result.ExitCode != 0 {
		return r.fail(id, fmt.Sprintf("review failed with exit code %d", result.ExitCode))
	}

	return r.setStatus(id, models.TaskCompleted, "review finished", nil)
}

func (r *taskRunner) RunFull(id string) error {
	if err := r.CloneRepo(id); err != nil {
		return err
	}
	return r.ReviewRepo(id)
}

func (r *taskRunner) RunFullAsync(id string) error {
	task, ok := r.registry.Get(id)
	if !ok {
		return fmt.Errorf("unknown task id %s", id)
	}
	if task.Status.InFlight() {
		return fmt.Errorf("task %s already has an operation in flight", id)
	}

	go func() {
		// Failures are reflected in the task state and on the bus; there is
		// no caller left to return them to.
		_ = r.RunFull(id)
	}()
	return nil
}
