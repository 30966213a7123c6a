package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/remedy/pkg/models"
)

var (
	issuesLimit     int
	issuesLabels    []string
	issuesGoodFirst bool
	issuesJSON      bool
)

var issuesCmd = &cobra.Command{
	Use:   "issues <owner>/<repo>",
	Short: "Triage open issues by estimated difficulty",
	Long: `Fetch open issues, drop the ones that are claimed or carry a skip label,
score the rest on a 1-5 difficulty scale (1 easiest), and print them
easiest first.

Requires a GitHub token in the environment (see github_token_env in
.remedyconfig, default GITHUB_TOKEN).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Platform == nil {
			return fmt.Errorf("no GitHub token configured; set %s", tokenEnvName())
		}
		if Selector == nil {
			return fmt.Errorf("issue selector not initialized")
		}

		owner, repo, err := splitOwnerRepo(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var issues []models.Issue
		if issuesGoodFirst {
			issues, err = Platform.GoodFirstIssues(ctx, owner, repo, issuesLimit*3)
		} else {
			issues, err = Platform.ListIssues(ctx, owner, repo, issuesLabels, "open", issuesLimit*3)
		}
		if err != nil {
			return fmt.Errorf("fetching issues for %s/%s: %w", owner, repo, err)
		}

		best := Selector.Best(issues, issuesLimit)
		if len(best) == 0 {
			fmt.Println("No candidate issues found.")
			return nil
		}

		if issuesJSON {
			data, err := json.MarshalIndent(best, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting issues as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, issue := range best {
			fmt.Printf("#%-6d [%d/5] %s\n", issue.Number, issue.DifficultyScore, issue.Title)
			fmt.Printf("        %s (est. %d file(s), %d comment(s))\n",
				issue.Recommendation, issue.EstimatedFiles, issue.Comments)
		}
		return nil
	},
}

func splitOwnerRepo(s string) (string, string, error) {
	parts := strings.Split(strings.TrimSuffix(s, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected <owner>/<repo>, got %q", s)
	}
	return parts[0], parts[1], nil
}

func tokenEnvName() string {
	if GlobalCfg != nil && GlobalCfg.GitHubTokenEnv != "" {
		return GlobalCfg.GitHubTokenEnv
	}
	return "GITHUB_TOKEN"
}

func init() {
	issuesCmd.Flags().IntVar(&issuesLimit, "limit", 10, "Maximum number of issues to show")
	issuesCmd.Flags().StringSliceVar(&issuesLabels, "label", nil, "Only fetch issues carrying these labels")
	issuesCmd.Flags().BoolVar(&issuesGoodFirst, "good-first", false, "Search the beginner-friendly label set")
	issuesCmd.Flags().BoolVar(&issuesJSON, "json", false, "Output the scored issues as JSON")

	rootCmd.AddCommand(issuesCmd)
}
