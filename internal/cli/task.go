package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/remedy/internal/integration"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage repository tasks (add, list, show, delete)",
	Long: `Unified task management commands.

A task tracks one repository through the clone and review pipeline. Tasks
survive restarts; any task interrupted mid-operation is recovered to its
last safe state on the next start.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <repo-url>",
	Short: "Register a repository as a new task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("task registry not initialized")
		}

		repoURL := args[0]
		if _, _, err := integration.ParseRepoURL(repoURL); err != nil {
			return fmt.Errorf("parsing repository url: %w", err)
		}

		task := Registry.Create(repoURL)
		fmt.Printf("Created task %s\n", task.ID)
		fmt.Printf("  Repo:   %s\n", task.RepoURL)
		fmt.Printf("  Name:   %s\n", task.RepoName)
		fmt.Printf("  Status: %s\n", task.Status)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks ordered by id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("task registry not initialized")
		}

		tasks := Registry.List()
		if len(tasks) == 0 {
			fmt.Println("No tasks. Add one with: remedy task add <repo-url>")
			return nil
		}

		fmt.Printf("%-6s %-12s %-24s %s\n", "ID", "STATUS", "REPO", "MESSAGE")
		for _, t := range tasks {
			fmt.Printf("%-6s %-12s %-24s %s\n", t.ID, t.Status, t.RepoName, t.Message)
		}
		return nil
	},
}

var taskShowOutput bool

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("task registry not initialized")
		}

		task, ok := Registry.Get(args[0])
		if !ok {
			return fmt.Errorf("no task with id %s", args[0])
		}

		fmt.Printf("Task %s\n", task.ID)
		fmt.Printf("  Repo:    %s\n", task.RepoURL)
		fmt.Printf("  Status:  %s\n", task.Status)
		if task.LocalPath != "" {
			fmt.Printf("  Path:    %s\n", task.LocalPath)
		}
		if task.Message != "" {
			fmt.Printf("  Message: %s\n", task.Message)
		}
		if task.Error != "" {
			fmt.Printf("  Error:   %s\n", task.Error)
		}
		if taskShowOutput && task.Output != "" {
			fmt.Printf("\n--- output ---\n%s", task.Output)
		}
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task and its persisted record",
	Long: `Delete a task. The local repository checkout, if any, is left on disk;
only the task record is removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("task registry not initialized")
		}

		if _, ok := Registry.Get(args[0]); !ok {
			return fmt.Errorf("no task with id %s", args[0])
		}
		Registry.Delete(args[0])
		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	},
}

func init() {
	taskShowCmd.Flags().BoolVar(&taskShowOutput, "output", false, "Include the accumulated review output")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDeleteCmd)

	rootCmd.AddCommand(taskCmd)
}
