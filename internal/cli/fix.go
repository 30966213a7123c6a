package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/remedy/internal/core"
	"github.com/valter-silva-au/remedy/internal/integration"
	"github.com/valter-silva-au/remedy/pkg/models"
)

var (
	fixCommit bool
	fixPush   bool
	fixPR     bool
	fixTitle  string
	fixBody   string
)

var fixCmd = &cobra.Command{
	Use:   "fix <task-id> <issue-number>",
	Short: "Attempt an automated fix for one issue",
	Long: `Drive a staged fix attempt inside the task's checkout: create a fix
branch, run the fixer, capture the diff, and review it.

By default the attempt stops once the diff is ready so it can be inspected.
--commit commits the changes, --push pushes the branch, and --pr opens a
pull request; each later stage implies nothing about the next.

The issue title and body are fetched from GitHub when a token is
configured; otherwise supply them with --title and --body.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil || Fixer == nil || Git == nil {
			return fmt.Errorf("services not initialized")
		}

		task, ok := Registry.Get(args[0])
		if !ok {
			return fmt.Errorf("no task with id %s", args[0])
		}
		if task.LocalPath == "" {
			return fmt.Errorf("task %s has no local checkout; run: remedy clone %s", task.ID, task.ID)
		}

		var issueNumber int
		if _, err := fmt.Sscanf(args[1], "%d", &issueNumber); err != nil || issueNumber <= 0 {
			return fmt.Errorf("invalid issue number %q", args[1])
		}

		owner, repo, err := integration.ParseRepoURL(task.RepoURL)
		if err != nil {
			return fmt.Errorf("parsing task repository url: %w", err)
		}

		issue, err := resolveIssue(cmd, owner, repo, issueNumber)
		if err != nil {
			return err
		}

		opts := core.FixOptions{
			AutoCommit: fixCommit || fixPush || fixPR,
			AutoPush:   fixPush || fixPR,
			AutoPR:     fixPR,
			Owner:      owner,
			Repo:       repo,
		}

		workflow := core.NewFixWorkflow(task.LocalPath, reportDir(), Git, Fixer, Platform, Bus)

		if err := Registry.Transition(task.ID, models.TaskFixing, func(t *models.Task) {
			t.Message = fmt.Sprintf("fixing issue #%d", issueNumber)
		}); err != nil {
			return err
		}

		var result *models.FixResult
		err = streamRun("", func(string) error {
			result = workflow.Run(cmd.Context(), issue, opts)
			if !result.Success {
				return fmt.Errorf("fix attempt failed: %s", result.Error)
			}
			return nil
		})

		finalState := models.TaskCompleted
		message := "fix attempt finished"
		if err != nil {
			finalState = models.TaskError
			message = err.Error()
			if result != nil && result.Error != "" {
				message = result.Error
			}
		}
		_ = Registry.Transition(task.ID, finalState, func(t *models.Task) {
			t.Message = message
		})

		if result != nil {
			printFixSummary(result)
		}
		return err
	},
}

// resolveIssue fetches the issue from GitHub, falling back to the --title and
// --body flags when no platform client is available.
func resolveIssue(cmd *cobra.Command, owner, repo string, number int) (models.Issue, error) {
	if fixTitle != "" {
		return models.Issue{Number: number, Title: fixTitle, Body: fixBody}, nil
	}
	if Platform == nil {
		return models.Issue{}, fmt.Errorf("no GitHub token configured; pass --title (and optionally --body) instead")
	}

	issues, err := Platform.ListIssues(cmd.Context(), owner, repo, nil, "open", 200)
	if err != nil {
		return models.Issue{}, fmt.Errorf("fetching issue #%d from %s/%s: %w", number, owner, repo, err)
	}
	for _, issue := range issues {
		if issue.Number == number {
			return issue, nil
		}
	}
	return models.Issue{}, fmt.Errorf("issue #%d not found in %s/%s", number, owner, repo)
}

func printFixSummary(result *models.FixResult) {
	fmt.Printf("\nAttempt %s: %s\n", result.AttemptID, result.Status)
	if result.BranchName != "" {
		fmt.Printf("  Branch: %s\n", result.BranchName)
	}
	if result.PRURL != "" {
		fmt.Printf("  PR:     %s\n", result.PRURL)
	}
	if result.Review != nil {
		if critical := result.Review.HighPriorityFindings(); len(critical) > 0 {
			fmt.Printf("  Review: %d high-priority finding(s)\n", len(critical))
		}
	}
	if result.Error != "" {
		fmt.Printf("  Error:  %s\n", result.Error)
	}
}

func reportDir() string {
	if BasePath == "" {
		return ""
	}
	return filepath.Join(BasePath, "reports")
}

func init() {
	fixCmd.Flags().BoolVar(&fixCommit, "commit", false, "Commit the changes after the diff checkpoint")
	fixCmd.Flags().BoolVar(&fixPush, "push", false, "Push the fix branch (implies --commit)")
	fixCmd.Flags().BoolVar(&fixPR, "pr", false, "Open a pull request (implies --commit and --push)")
	fixCmd.Flags().StringVar(&fixTitle, "title", "", "Issue title, for running without a GitHub token")
	fixCmd.Flags().StringVar(&fixBody, "body", "", "Issue body, for running without a GitHub token")

	rootCmd.AddCommand(fixCmd)
}
