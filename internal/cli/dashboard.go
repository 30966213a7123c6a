package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/remedy/internal/observability"
	"github.com/valter-silva-au/remedy/pkg/models"
)

// Dashboard panel indices.
const (
	panelTasks = iota
	panelActivity
	panelCount
)

// maxActivityLines bounds the rolling activity feed.
const maxActivityLines = 50

type taskRow struct {
	id      string
	repo    string
	status  models.TaskState
	message string
}

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	tasks    []taskRow
	activity []string

	// Live feed.
	events <-chan observability.BusEvent
	cancel func()
}

// tasksLoadedMsg carries a registry snapshot back to the model.
type tasksLoadedMsg struct {
	tasks []taskRow
}

// busEventMsg carries one live bus event.
type busEventMsg struct {
	event observability.BusEvent
	ok    bool
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusPending   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusWorking   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusCloned    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	statusCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	m := dashboardModel{activePanel: panelTasks}
	if Bus != nil {
		m.events, m.cancel = Bus.Subscribe()
	}
	return m
}

func (m dashboardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{loadTasks}
	if m.events != nil {
		cmds = append(cmds, waitForEvent(m.events))
	}
	return tea.Batch(cmds...)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			return m, loadTasks
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksLoadedMsg:
		m.tasks = msg.tasks
		return m, nil

	case busEventMsg:
		if !msg.ok {
			// Subscription closed; stop pumping.
			return m, nil
		}
		m.activity = append(m.activity, formatActivityLine(msg.event))
		if len(m.activity) > maxActivityLines {
			m.activity = m.activity[len(m.activity)-maxActivityLines:]
		}
		// Status events change the task list, so refresh it too.
		if msg.event.Kind == observability.KindStatus {
			return m, tea.Batch(loadTasks, waitForEvent(m.events))
		}
		return m, waitForEvent(m.events)
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Remedy Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	tasksPanel := m.renderTasksPanel()
	activityPanel := m.renderActivityPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 100 {
		colWidth := availableWidth / 2
		tasksPanel = m.applyPanelStyle(panelTasks, tasksPanel, colWidth-4)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, tasksPanel, activityPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		tasksPanel = m.applyPanelStyle(panelTasks, tasksPanel, panelWidth)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, tasksPanel, activityPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderTasksPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Tasks"))
	b.WriteString("\n")

	if len(m.tasks) == 0 {
		b.WriteString("  No tasks. Add one with: remedy task add <repo-url>")
		return b.String()
	}

	for _, t := range m.tasks {
		label := fmt.Sprintf("  %-5s %-12s %s", t.id, t.status, t.repo)
		b.WriteString(styleForTaskState(t.status).Render(label))
		b.WriteString("\n")
	}

	counts := make(map[models.TaskState]int)
	for _, t := range m.tasks {
		counts[t.status]++
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", len(m.tasks)))
	if n := counts[models.TaskError]; n > 0 {
		b.WriteString(statusFailed.Render(fmt.Sprintf("  (%d failed)", n)))
	}

	return b.String()
}

func (m dashboardModel) renderActivityPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Activity"))
	b.WriteString("\n")

	if len(m.activity) == 0 {
		b.WriteString("  Waiting for events...")
		return b.String()
	}

	// Newest last, bounded to what can plausibly fit.
	visible := m.activity
	if limit := m.height - 10; limit > 0 && len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	for _, line := range visible {
		b.WriteString("  " + line + "\n")
	}
	return b.String()
}

func styleForTaskState(state models.TaskState) lipgloss.Style {
	switch state {
	case models.TaskCloning, models.TaskReviewing, models.TaskFixing:
		return statusWorking
	case models.TaskCloned:
		return statusCloned
	case models.TaskCompleted:
		return statusCompleted
	case models.TaskError:
		return statusFailed
	case models.TaskPending:
		return statusPending
	default:
		return lipgloss.NewStyle()
	}
}

func formatActivityLine(ev observability.BusEvent) string {
	switch ev.Kind {
	case observability.KindStatus:
		return fmt.Sprintf("[%s] %s %s", ev.State, ev.ID, ev.Message)
	case observability.KindOutput:
		return fmt.Sprintf("%s | %s", ev.ID, ev.Line)
	default:
		return ev.Message
	}
}

func loadTasks() tea.Msg {
	msg := tasksLoadedMsg{}
	if Registry == nil {
		return msg
	}
	for _, t := range Registry.List() {
		msg.tasks = append(msg.tasks, taskRow{
			id:      t.ID,
			repo:    t.RepoName,
			status:  t.Status,
			message: t.Message,
		})
	}
	return msg
}

func waitForEvent(events <-chan observability.BusEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		return busEventMsg{event: ev, ok: ok}
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for tasks and live activity",
	Long: `Launch an interactive terminal dashboard showing the task set and a live
feed of status transitions and streamed tool output.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("task registry not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
