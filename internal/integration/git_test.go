package integration

import (
	"os/exec"
	"testing"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		owner     string
		repo      string
		expectErr bool
	}{
		{name: "https with .git", url: "https://github.com/octocat/hello.git", owner: "octocat", repo: "hello"},
		{name: "https without .git", url: "https://github.com/octocat/hello", owner: "octocat", repo: "hello"},
		{name: "trailing slash", url: "https://github.com/octocat/hello/", owner: "octocat", repo: "hello"},
		{name: "ssh", url: "git@github.com:octocat/hello.git", owner: "octocat", repo: "hello"},
		{name: "invalid", url: "nonsense", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRepoURL(tt.url)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if owner != tt.owner || repo != tt.repo {
				t.Errorf("expected %s/%s, got %s/%s", tt.owner, tt.repo, owner, repo)
			}
		})
	}
}

func TestRepoShortName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/octocat/hello.git", "hello"},
		{"https://github.com/octocat/hello/", "hello"},
		{"hello", "hello"},
	}
	for _, tt := range tests {
		if got := RepoShortName(tt.url); got != tt.want {
			t.Errorf("RepoShortName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestGitClient_RunReportsExitCode(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	git := NewGitClient()

	// A bogus subcommand must fail with captured stderr, never panic.
	result := git.Run(t.TempDir(), "definitely-not-a-subcommand")
	if result.Ok() {
		t.Error("expected non-zero exit code")
	}
	if result.Stderr == "" {
		t.Error("expected stderr to be captured")
	}
}

func TestGitClient_BranchHelpersOnFreshRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	git := NewGitClient()

	if result := git.Run(dir, "init", "-b", "main"); !result.Ok() {
		t.Fatalf("git init failed: %s", result.Stderr)
	}

	if branch := git.CurrentBranch(dir); branch != "main" {
		t.Errorf("expected main, got %q", branch)
	}
	if git.BranchExists(dir, "fix/issue-1") {
		t.Error("branch should not exist in a fresh repo")
	}
	// DefaultBranch falls back to main when no remote HEAD is configured.
	if branch := git.DefaultBranch(dir); branch != "main" {
		t.Errorf("expected fallback main, got %q", branch)
	}
}
