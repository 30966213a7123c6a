package cli

import (
	"testing"

	"github.com/valter-silva-au/remedy/internal/core"
	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/storage"
)

// withRegistry installs a fresh file-backed registry for the duration of one
// test and restores the previous wiring afterwards.
func withRegistry(t *testing.T) core.TaskRegistry {
	t.Helper()

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	registry := core.NewTaskRegistry(storage.NewTaskStore(store))

	orig := Registry
	t.Cleanup(func() { Registry = orig })
	Registry = registry
	return registry
}

// stubGit satisfies integration.GitClient without touching a real repository.
type stubGit struct{}

func (stubGit) Run(string, ...string) integration.GitResult { return integration.GitResult{} }
func (stubGit) Clone(string, string) integration.GitResult  { return integration.GitResult{} }
func (stubGit) Pull(string) integration.GitResult           { return integration.GitResult{} }
func (stubGit) CurrentBranch(string) string                 { return "main" }
func (stubGit) DefaultBranch(string) string                 { return "main" }
func (stubGit) BranchExists(string, string) bool            { return false }

// stubFixer satisfies integration.Fixer and reports success without running
// anything.
type stubFixer struct{}

func (stubFixer) Run(integration.FixerRunOptions) (*integration.FixerResult, error) {
	return &integration.FixerResult{}, nil
}

func (stubFixer) ReviewRepo(string, func(string)) (*integration.FixerResult, error) {
	return &integration.FixerResult{}, nil
}

func (stubFixer) FixIssue(string, string, string, []string, func(string)) (*integration.FixerResult, error) {
	return &integration.FixerResult{}, nil
}

func (stubFixer) ReviewDiff(string, string, func(string)) (*integration.FixerResult, error) {
	return &integration.FixerResult{}, nil
}

func (stubFixer) Stop() error { return nil }
