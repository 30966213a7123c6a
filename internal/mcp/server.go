// Package mcp provides an MCP (Model Context Protocol) server that exposes
// remedy functionality as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/remedy/internal/core"
	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// Server wraps remedy services and exposes them as MCP tools.
type Server struct {
	server   *gomcp.Server
	registry core.TaskRegistry
	runner   core.TaskRunner
	selector core.IssueSelector
	platform integration.Platform
}

// NewServer creates a new MCP server with the given service dependencies.
// runner and platform may be nil; the corresponding tools then report an
// error when called.
func NewServer(registry core.TaskRegistry, runner core.TaskRunner, selector core.IssueSelector, platform integration.Platform, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		registry: registry,
		runner:   runner,
		selector: selector,
		platform: platform,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "remedy", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the numeric task identifier (e.g. 3)"`
}

type taskOutput struct {
	ID        string `json:"id"`
	RepoURL   string `json:"repo_url"`
	RepoName  string `json:"repo_name"`
	Status    string `json:"status"`
	LocalPath string `json:"local_path,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (pending, cloning, cloned, reviewing, fixing, completed, error)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type createTaskInput struct {
	RepoURL string `json:"repo_url" jsonschema:"required,the repository url to track (https or ssh)"`
}

type runTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the numeric task identifier to clone and review"`
}

type runTaskOutput struct {
	Message string `json:"message"`
}

type triageIssuesInput struct {
	Owner string `json:"owner" jsonschema:"required,the repository owner"`
	Repo  string `json:"repo" jsonschema:"required,the repository name"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of issues to return. Defaults to 10."`
}

type issueOutput struct {
	Number         int    `json:"number"`
	Title          string `json:"title"`
	Difficulty     int    `json:"difficulty"`
	Recommendation string `json:"recommendation"`
	EstimatedFiles int    `json:"estimated_files"`
	Comments       int    `json:"comments"`
	URL            string `json:"url,omitempty"`
}

type triageIssuesOutput struct {
	Issues []issueOutput `json:"issues"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by ID. Returns the full task record including status, checkout path, and any error.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with an optional status filter. Returns an array of task summaries ordered by id.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_task",
		Description: "Register a repository url as a new task. Returns the created task with its allocated id.",
	}, s.handleCreateTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "run_task",
		Description: "Start the clone-and-review pipeline for a task in the background. Progress lands in the task record.",
	}, s.handleRunTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "triage_issues",
		Description: "Fetch open issues for a repository, score them by estimated difficulty (1 easiest, 5 hardest), and return them easiest first.",
	}, s.handleTriageIssues)
}

// --- Tool handlers ---

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, ok := s.registry.Get(input.TaskID)
	if !ok {
		return errorResult(fmt.Sprintf("no task with id %s", input.TaskID)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	tasks := s.registry.List()

	out := listTasksOutput{Tasks: []taskOutput{}}
	for _, t := range tasks {
		if input.Status != "" && string(t.Status) != input.Status {
			continue
		}
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleCreateTask(_ context.Context, _ *gomcp.CallToolRequest, input createTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.RepoURL == "" {
		return errorResult("repo_url is required"), taskOutput{}, nil
	}
	if _, _, err := integration.ParseRepoURL(input.RepoURL); err != nil {
		return errorResult(fmt.Sprintf("invalid repository url: %s", err)), taskOutput{}, nil
	}

	task := s.registry.Create(input.RepoURL)
	return nil, taskToOutput(task), nil
}

func (s *Server) handleRunTask(_ context.Context, _ *gomcp.CallToolRequest, input runTaskInput) (*gomcp.CallToolResult, runTaskOutput, error) {
	if s.runner == nil {
		return errorResult("task runner not available"), runTaskOutput{}, nil
	}
	if input.TaskID == "" {
		return errorResult("task_id is required"), runTaskOutput{}, nil
	}

	if err := s.runner.RunFullAsync(input.TaskID); err != nil {
		return errorResult(fmt.Sprintf("starting task %s: %s", input.TaskID, err)), runTaskOutput{}, nil
	}
	return nil, runTaskOutput{
		Message: fmt.Sprintf("task %s pipeline started", input.TaskID),
	}, nil
}

func (s *Server) handleTriageIssues(ctx context.Context, _ *gomcp.CallToolRequest, input triageIssuesInput) (*gomcp.CallToolResult, triageIssuesOutput, error) {
	if s.platform == nil {
		return errorResult("no GitHub token configured"), triageIssuesOutput{}, nil
	}
	if input.Owner == "" || input.Repo == "" {
		return errorResult("owner and repo are required"), triageIssuesOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	issues, err := s.platform.ListIssues(ctx, input.Owner, input.Repo, nil, "open", limit*3)
	if err != nil {
		return errorResult(fmt.Sprintf("fetching issues for %s/%s: %s", input.Owner, input.Repo, err)), triageIssuesOutput{}, nil
	}

	best := s.selector.Best(issues, limit)
	out := triageIssuesOutput{Issues: make([]issueOutput, len(best)), Count: len(best)}
	for i, issue := range best {
		out.Issues[i] = issueOutput{
			Number:         issue.Number,
			Title:          issue.Title,
			Difficulty:     issue.DifficultyScore,
			Recommendation: issue.Recommendation,
			EstimatedFiles: issue.EstimatedFiles,
			Comments:       issue.Comments,
			URL:            issue.URL,
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	return taskOutput{
		ID:        t.ID,
		RepoURL:   t.RepoURL,
		RepoName:  t.RepoName,
		Status:    string(t.Status),
		LocalPath: t.LocalPath,
		Message:   t.Message,
		Error:     t.Error,
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
