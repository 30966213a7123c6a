package core

import (
	"context"
	"strings"
	"testing"

	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/internal/storage"
	"github.com/valter-silva-au/remedy/pkg/models"
)

func newTestRegistry(t *testing.T) (TaskRegistry, storage.TaskStore) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts := storage.NewTaskStore(store)
	return NewTaskRegistry(ts), ts
}

// fakeGit is a scripted GitClient. Commands are recorded; results are looked
// up by their joined argument string, falling back to success.
type fakeGit struct {
	commands      [][]string
	results       map[string]integration.GitResult
	branches      map[string]bool
	defaultBranch string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		results:       map[string]integration.GitResult{},
		branches:      map[string]bool{},
		defaultBranch: "main",
	}
}

func (g *fakeGit) key(args []string) string { return strings.Join(args, " ") }

func (g *fakeGit) Run(repoPath string, args ...string) integration.GitResult {
	g.commands = append(g.commands, args)
	if result, ok := g.results[g.key(args)]; ok {
		return result
	}
	return integration.GitResult{}
}

func (g *fakeGit) Clone(url, dest string) integration.GitResult {
	return g.Run("", "clone", url, dest)
}

func (g *fakeGit) Pull(repoPath string) integration.GitResult {
	return g.Run(repoPath, "pull")
}

func (g *fakeGit) CurrentBranch(repoPath string) string { return g.defaultBranch }
func (g *fakeGit) DefaultBranch(repoPath string) string { return g.defaultBranch }
func (g *fakeGit) BranchExists(repoPath, branch string) bool {
	return g.branches[branch]
}

// ran reports whether a command whose joined args start with prefix was run.
func (g *fakeGit) ran(prefix string) bool {
	for _, cmd := range g.commands {
		if strings.HasPrefix(g.key(cmd), prefix) {
			return true
		}
	}
	return false
}

// fakeFixer is a scripted Fixer.
type fakeFixer struct {
	lines      []string
	exitCode   int
	err        error
	reviewJSON string // transcript returned by ReviewDiff

	fixCalls    int
	reviewCalls int
	stopped     bool
}

func (f *fakeFixer) run(onLine func(string)) (*integration.FixerResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, line := range f.lines {
		if onLine != nil {
			onLine(line)
		}
	}
	return &integration.FixerResult{
		ExitCode:   f.exitCode,
		Transcript: strings.Join(f.lines, "\n"),
	}, nil
}

func (f *fakeFixer) Run(opts integration.FixerRunOptions) (*integration.FixerResult, error) {
	return f.run(opts.OnLine)
}

func (f *fakeFixer) ReviewRepo(repoPath string, onLine func(string)) (*integration.FixerResult, error) {
	return f.run(onLine)
}

func (f *fakeFixer) FixIssue(repoPath, title, body string, files []string, onLine func(string)) (*integration.FixerResult, error) {
	f.fixCalls++
	return f.run(onLine)
}

func (f *fakeFixer) ReviewDiff(repoPath, diff string, onLine func(string)) (*integration.FixerResult, error) {
	f.reviewCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &integration.FixerResult{ExitCode: 0, Transcript: f.reviewJSON}, nil
}

func (f *fakeFixer) Stop() error {
	f.stopped = true
	return nil
}

// fakePlatform is a scripted Platform.
type fakePlatform struct {
	identity  string
	repoOwner string
	prURL     string
	prErr     error

	createdHead string
	createdBase string
}

func (p *fakePlatform) ListIssues(ctx context.Context, owner, repo string, labels []string, state string, limit int) ([]models.Issue, error) {
	return nil, nil
}

func (p *fakePlatform) GoodFirstIssues(ctx context.Context, owner, repo string, limit int) ([]models.Issue, error) {
	return nil, nil
}

func (p *fakePlatform) CreatePullRequest(ctx context.Context, owner, repo, title, body, head, base string) (*models.PullRequest, error) {
	if p.prErr != nil {
		return nil, p.prErr
	}
	p.createdHead = head
	p.createdBase = base
	return &models.PullRequest{Number: 1, URL: p.prURL, Title: title}, nil
}

func (p *fakePlatform) CurrentIdentity() string { return p.identity }

func (p *fakePlatform) RepositoryOwner(ctx context.Context, owner, repo string) (string, error) {
	return p.repoOwner, nil
}

func (p *fakePlatform) CloneURL(ctx context.Context, owner, repo string, useSSH bool) (string, error) {
	return "https://github.com/" + owner + "/" + repo + ".git", nil
}

func (p *fakePlatform) Fork(ctx context.Context, owner, repo string) error { return nil }

func testBus() observability.Bus { return observability.NewBus(1024) }
