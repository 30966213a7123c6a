package cli

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// withFixServices installs stub git/fixer/bus wiring around the registry so
// the fix command's preconditions can be exercised without subprocesses.
func withFixServices(t *testing.T) {
	t.Helper()
	origGit, origFixer, origBus, origPlatform := Git, Fixer, Bus, Platform
	t.Cleanup(func() { Git, Fixer, Bus, Platform = origGit, origFixer, origBus, origPlatform })
	Git = stubGit{}
	Fixer = stubFixer{}
	Bus = observability.NewBus(64)
	Platform = nil
}

func TestFix_UnknownTask(t *testing.T) {
	withRegistry(t)
	withFixServices(t)

	err := fixCmd.RunE(fixCmd, []string{"42", "7"})
	if err == nil || !strings.Contains(err.Error(), "no task with id") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFix_RequiresCheckout(t *testing.T) {
	registry := withRegistry(t)
	withFixServices(t)
	task := registry.Create("https://github.com/acme/widget.git")

	err := fixCmd.RunE(fixCmd, []string{task.ID, "7"})
	if err == nil || !strings.Contains(err.Error(), "no local checkout") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFix_RejectsBadIssueNumber(t *testing.T) {
	registry := withRegistry(t)
	withFixServices(t)
	task := registry.Create("https://github.com/acme/widget.git")
	registry.Update(task.ID, func(t *models.Task) {
		t.Status = models.TaskCloned
		t.LocalPath = "/tmp/somewhere"
	})

	for _, bad := range []string{"zero", "-3", "0"} {
		if err := fixCmd.RunE(fixCmd, []string{task.ID, bad}); err == nil {
			t.Errorf("issue number %q should be rejected", bad)
		}
	}
}

func TestFix_OfflineRequiresTitle(t *testing.T) {
	registry := withRegistry(t)
	withFixServices(t)
	task := registry.Create("https://github.com/acme/widget.git")
	registry.Update(task.ID, func(t *models.Task) {
		t.Status = models.TaskCloned
		t.LocalPath = "/tmp/somewhere"
	})

	origTitle := fixTitle
	defer func() { fixTitle = origTitle }()
	fixTitle = ""

	err := fixCmd.RunE(fixCmd, []string{task.ID, "7"})
	if err == nil || !strings.Contains(err.Error(), "--title") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFix_OfflineCheckpointRun(t *testing.T) {
	registry := withRegistry(t)
	withFixServices(t)
	task := registry.Create("https://github.com/acme/widget.git")
	registry.Update(task.ID, func(t *models.Task) {
		t.Status = models.TaskCloned
		t.LocalPath = "/tmp/somewhere"
	})

	origTitle, origBase := fixTitle, BasePath
	defer func() { fixTitle, BasePath = origTitle, origBase }()
	fixTitle = "Fix typo in README"
	BasePath = t.TempDir()

	if err := fixCmd.RunE(fixCmd, []string{task.ID, "7"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := registry.Get(task.ID)
	if got.Status != models.TaskCompleted {
		t.Errorf("task status = %s, want %s", got.Status, models.TaskCompleted)
	}
}
