package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/remedy/internal/observability"
)

var (
	eventsSince string
	eventsKind  string
	eventsID    string
	eventsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Display logged task and fix events",
	Long: `Display events from the append-only event log: task status transitions,
fix workflow progress, and streamed tool output.

Filter by time window (--since 7d), event kind (--kind status|output), or
publisher id (--id).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (event_log may be disabled in .remedyconfig)")
		}

		sinceTime, err := parseSinceDuration(eventsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		events, err := EventLog.Read(observability.EventFilter{
			Since: &sinceTime,
			Kind:  observability.EventKind(eventsKind),
			ID:    eventsID,
		})
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		if eventsJSON {
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Println("No events in the selected window.")
			return nil
		}
		for _, ev := range events {
			stamp := ev.Time.Format("2006-01-02 15:04:05")
			switch ev.Kind {
			case observability.KindStatus:
				fmt.Printf("%s  %-8s %s -> %s  %s\n", stamp, ev.ID, ev.Kind, ev.State, ev.Message)
			case observability.KindOutput:
				fmt.Printf("%s  %-8s %s  %s\n", stamp, ev.ID, ev.Kind, ev.Line)
			}
		}
		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSince, "since", "7d", "Time window for events (e.g. 7d, 30d, 24h)")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "Filter by event kind (status, output)")
	eventsCmd.Flags().StringVar(&eventsID, "id", "", "Filter by task or attempt id")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")

	rootCmd.AddCommand(eventsCmd)
}
