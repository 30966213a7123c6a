package integration

import (
	"context"
	"fmt"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/valter-silva-au/remedy/pkg/models"
)

// goodFirstLabels are the labels queried by GoodFirstIssues. Matching is done
// label by label because the GitHub API ANDs multiple labels together.
var goodFirstLabels = []string{
	"good first issue",
	"good-first-issue",
	"help wanted",
	"beginner",
	"easy",
}

// Platform defines the hosting-platform capability consumed by the core:
// issue listing, pull-request creation, and identity resolution.
type Platform interface {
	ListIssues(ctx context.Context, owner, repo string, labels []string, state string, limit int) ([]models.Issue, error)
	GoodFirstIssues(ctx context.Context, owner, repo string, limit int) ([]models.Issue, error)
	CreatePullRequest(ctx context.Context, owner, repo, title, body, head, base string) (*models.PullRequest, error)
	CurrentIdentity() string
	RepositoryOwner(ctx context.Context, owner, repo string) (string, error)
	CloneURL(ctx context.Context, owner, repo string, useSSH bool) (string, error)
	Fork(ctx context.Context, owner, repo string) error
}

type githubPlatform struct {
	client *github.Client
	login  string
}

// NewGitHubPlatform creates a Platform backed by the GitHub API. The token is
// required; the acting identity is resolved once at construction.
func NewGitHubPlatform(ctx context.Context, token string) (Platform, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("resolving authenticated user: %w", err)
	}

	return &githubPlatform{client: client, login: user.GetLogin()}, nil
}

func (p *githubPlatform) CurrentIdentity() string {
	return p.login
}

func (p *githubPlatform) ListIssues(ctx context.Context, owner, repo string, labels []string, state string, limit int) ([]models.Issue, error) {
	if state == "" {
		state = "open"
	}
	opts := &github.IssueListByRepoOptions{
		State:       state,
		Labels:      labels,
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var result []models.Issue
	for len(result) < limit {
		issues, resp, err := p.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s/%s: %w", owner, repo, err)
		}
		for _, issue := range issues {
			// The API counts pull requests as issues; skip them.
			if issue.IsPullRequest() {
				continue
			}
			result = append(result, toIssue(issue))
			if len(result) == limit {
				break
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return result, nil
}

func (p *githubPlatform) GoodFirstIssues(ctx context.Context, owner, repo string, limit int) ([]models.Issue, error) {
	seen := make(map[int]bool)
	var result []models.Issue

	for _, label := range goodFirstLabels {
		issues, err := p.ListIssues(ctx, owner, repo, []string{label}, "open", limit)
		if err != nil {
			// A label the repository does not use is not fatal.
			continue
		}
		for _, issue := range issues {
			if seen[issue.Number] {
				continue
			}
			seen[issue.Number] = true
			result = append(result, issue)
			if len(result) == limit {
				return result, nil
			}
		}
	}
	return result, nil
}

func (p *githubPlatform) CreatePullRequest(ctx context.Context, owner, repo, title, body, head, base string) (*models.PullRequest, error) {
	pr, _, err := p.client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
		Head:  github.Ptr(head),
		Base:  github.Ptr(base),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request on %s/%s: %w", owner, repo, err)
	}
	return &models.PullRequest{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
		Title:  pr.GetTitle(),
	}, nil
}

func (p *githubPlatform) RepositoryOwner(ctx context.Context, owner, repo string) (string, error) {
	repository, _, err := p.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("resolving owner of %s/%s: %w", owner, repo, err)
	}
	return repository.GetOwner().GetLogin(), nil
}

func (p *githubPlatform) CloneURL(ctx context.Context, owner, repo string, useSSH bool) (string, error) {
	repository, _, err := p.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("resolving clone URL of %s/%s: %w", owner, repo, err)
	}
	if useSSH {
		return repository.GetSSHURL(), nil
	}
	return repository.GetCloneURL(), nil
}

func (p *githubPlatform) Fork(ctx context.Context, owner, repo string) error {
	_, _, err := p.client.Repositories.CreateFork(ctx, owner, repo, nil)
	if err != nil {
		// Forking is asynchronous; the API reports 202 via AcceptedError.
		if _, accepted := err.(*github.AcceptedError); accepted {
			return nil
		}
		return fmt.Errorf("forking %s/%s: %w", owner, repo, err)
	}
	return nil
}

func toIssue(issue *github.Issue) models.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	assignees := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, a.GetLogin())
	}
	return models.Issue{
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		Labels:    labels,
		URL:       issue.GetHTMLURL(),
		Comments:  issue.GetComments(),
		Assignees: assignees,
		CreatedAt: issue.GetCreatedAt().Time,
	}
}
