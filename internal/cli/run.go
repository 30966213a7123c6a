package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/remedy/internal/observability"
)

var runCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Clone the task's repository and run the automated review",
	Long: `Run the default pipeline for a task: fetch the repository (clone, or pull
when a checkout already exists), then stream the automated code review.

The command blocks until the pipeline finishes; a one-shot process cannot
outlive its own background work. Detached runs are available through the
MCP server, which stays alive to carry them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Runner == nil {
			return fmt.Errorf("task runner not initialized")
		}
		return streamRun(args[0], Runner.RunFull)
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone <task-id>",
	Short: "Fetch the task's repository without reviewing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Runner == nil {
			return fmt.Errorf("task runner not initialized")
		}
		return streamRun(args[0], Runner.CloneRepo)
	},
}

var reviewCmd = &cobra.Command{
	Use:   "review <task-id>",
	Short: "Run the automated review over an existing checkout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Runner == nil {
			return fmt.Errorf("task runner not initialized")
		}
		return streamRun(args[0], Runner.ReviewRepo)
	},
}

// streamRun executes op while printing bus events to stdout. An empty id
// prints events for every publisher, which the fix command uses since its
// events carry the attempt id rather than the task id. On interrupt the
// running fixer process is asked to stop so the checkout is not left with a
// half-written change.
func streamRun(id string, op func(string) error) error {
	if Bus == nil {
		return op(id)
	}

	events, cancel := Bus.Subscribe()
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	done := make(chan error, 1)
	go func() { done <- op(id) }()

	for {
		select {
		case <-interrupt:
			if Fixer != nil {
				_ = Fixer.Stop()
			}
		case ev := <-events:
			printEvent(id, ev)
		case err := <-done:
			// Drain whatever was already buffered before returning.
			for {
				select {
				case ev := <-events:
					printEvent(id, ev)
				default:
					return err
				}
			}
		}
	}
}

func printEvent(id string, ev observability.BusEvent) {
	if id != "" && ev.ID != id {
		return
	}
	switch ev.Kind {
	case observability.KindStatus:
		fmt.Printf("[%s] %s\n", ev.State, ev.Message)
	case observability.KindOutput:
		fmt.Println(ev.Line)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(reviewCmd)
}
