// Package integration wraps the external collaborators the engine drives:
// git subprocesses, the code-modification CLI, and the GitHub API.
package integration

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// GitResult is the uninterpreted outcome of one git subcommand.
type GitResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Ok reports whether the command exited zero.
func (r GitResult) Ok() bool { return r.ExitCode == 0 }

// GitClient defines the git operations the orchestration core sequences.
// Every method is a blocking subprocess invocation; interpretation of
// failures belongs to the caller.
type GitClient interface {
	// Run executes git with the given arguments inside repoPath.
	Run(repoPath string, args ...string) GitResult
	// Clone clones url into dest.
	Clone(url, dest string) GitResult
	// Pull updates an existing checkout in place.
	Pull(repoPath string) GitResult
	// CurrentBranch returns the checked-out branch, or "main" when it cannot
	// be determined.
	CurrentBranch(repoPath string) string
	// DefaultBranch resolves the remote default branch, or "main" when it
	// cannot be determined.
	DefaultBranch(repoPath string) string
	// BranchExists reports whether a local branch with the given name exists.
	BranchExists(repoPath, branch string) bool
}

type gitClient struct{}

// NewGitClient creates a GitClient that shells out to the git binary.
func NewGitClient() GitClient {
	return &gitClient{}
}

func (g *gitClient) Run(repoPath string, args ...string) GitResult {
	cmd := exec.Command("git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := GitResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// git itself could not be started.
			result.ExitCode = -1
			result.Stderr = err.Error()
		}
	}
	return result
}

func (g *gitClient) Clone(url, dest string) GitResult {
	return g.Run("", "clone", url, dest)
}

func (g *gitClient) Pull(repoPath string) GitResult {
	return g.Run(repoPath, "pull")
}

func (g *gitClient) CurrentBranch(repoPath string) string {
	result := g.Run(repoPath, "branch", "--show-current")
	if !result.Ok() {
		return "main"
	}
	return strings.TrimSpace(result.Stdout)
}

func (g *gitClient) DefaultBranch(repoPath string) string {
	result := g.Run(repoPath, "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	if !result.Ok() {
		return "main"
	}
	return strings.TrimPrefix(strings.TrimSpace(result.Stdout), "origin/")
}

func (g *gitClient) BranchExists(repoPath, branch string) bool {
	return g.Run(repoPath, "show-ref", "--verify", "refs/heads/"+branch).Ok()
}

// ParseRepoURL splits a repository URL like https://github.com/owner/repo.git
// into its owner and repository name.
func ParseRepoURL(url string) (owner, repo string, err error) {
	cleaned := strings.TrimSpace(url)
	cleaned = strings.TrimSuffix(cleaned, "/")
	cleaned = strings.TrimSuffix(cleaned, ".git")
	cleaned = strings.TrimPrefix(cleaned, "git@")
	// SSH-style separator: github.com:owner/repo -> github.com/owner/repo
	if idx := strings.Index(cleaned, ":"); idx > 0 && !strings.Contains(cleaned[:idx], "/") {
		cleaned = cleaned[:idx] + "/" + cleaned[idx+1:]
	}

	parts := strings.Split(cleaned, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid repository URL %q", url)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// RepoShortName derives the short repository name from its URL.
func RepoShortName(url string) string {
	cleaned := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(url), "/"), ".git")
	parts := strings.Split(cleaned, "/")
	return parts[len(parts)-1]
}
