package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"phi/internal/api"
	"phi/internal/task"
)

// adminMode is which pane the inspector shows.
type adminMode int

const (
	adminList adminMode = iota
	adminDetail
)

// ─────────────────────────────────────────────────────────
// Messages
// ─────────────────────────────────────────────────────────

type adminTasksMsg struct {
	tasks []task.Snapshot
	err   error
}

type adminEventsMsg struct {
	taskID string
	events []task.Event
	err    error
}

// adminModel is the task inspector: a filtered task table, and a detail pane
// with the selected task's snapshot and full event log.
type adminModel struct {
	app    *App
	filter api.AdminTaskFilter

	table    table.Model
	detail   viewport.Model
	bar      progress.Model
	mode     adminMode
	tasks    []task.Snapshot
	selected *task.Snapshot
	events   []task.Event

	width  int
	height int
	ready  bool
	err    error
}

func newAdminModel(app *App, filter api.AdminTaskFilter) adminModel {
	columns := []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Type", Width: 24},
		{Title: "Status", Width: 9},
		{Title: "Progress", Width: 8},
		{Title: "Step", Width: 28},
		{Title: "Created", Width: 16},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("12")).Bold(true)
	t.SetStyles(styles)

	return adminModel{
		app:    app,
		filter: filter,
		table:  t,
		detail: viewport.New(80, 20),
		bar:    progress.New(progress.WithDefaultGradient()),
		mode:   adminList,
	}
}

// ─────────────────────────────────────────────────────────
// Bubbletea interface
// ─────────────────────────────────────────────────────────

func (m adminModel) Init() tea.Cmd {
	return m.fetchTasks()
}

func (m adminModel) fetchTasks() tea.Cmd {
	client := m.app.Client
	filter := m.filter
	return func() tea.Msg {
		tasks, err := client.AdminListTasks(context.Background(), filter)
		return adminTasksMsg{tasks: tasks, err: err}
	}
}

func (m adminModel) fetchEvents(taskID string) tea.Cmd {
	client := m.app.Client
	return func() tea.Msg {
		events, err := client.AdminTaskEvents(context.Background(), taskID)
		return adminEventsMsg{taskID: taskID, events: events, err: err}
	}
}

func (m adminModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 2)
		m.table.SetHeight(msg.Height - 4)
		m.detail.Width = msg.Width - 2
		m.detail.Height = msg.Height - 4
		m.bar.Width = msg.Width - 20
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.mode == adminDetail && msg.String() == "q" {
				m.mode = adminList
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.mode == adminDetail {
				m.mode = adminList
				return m, nil
			}
			return m, tea.Quit
		case "r":
			if m.mode == adminList {
				return m, m.fetchTasks()
			}
		case "enter":
			if m.mode == adminList {
				idx := m.table.Cursor()
				if idx >= 0 && idx < len(m.tasks) {
					m.selected = &m.tasks[idx]
					m.events = nil
					m.mode = adminDetail
					m.renderDetail()
					return m, m.fetchEvents(m.selected.ID)
				}
			}
		}

	case adminTasksMsg:
		m.err = msg.err
		if msg.err == nil {
			m.tasks = msg.tasks
			m.table.SetRows(m.taskRows())
		}
		return m, nil

	case adminEventsMsg:
		if m.selected == nil || msg.taskID != m.selected.ID {
			return m, nil
		}
		m.err = msg.err
		if msg.err == nil {
			m.events = msg.events
			sort.SliceStable(m.events, func(i, j int) bool {
				return m.events[i].Timestamp.Before(m.events[j].Timestamp)
			})
		}
		m.renderDetail()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.mode {
	case adminList:
		m.table, cmd = m.table.Update(msg)
	case adminDetail:
		m.detail, cmd = m.detail.Update(msg)
	}
	return m, cmd
}

func (m adminModel) View() string {
	if !m.ready {
		return "Loading tasks..."
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(m.width)
	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)

	var header, body, footer string
	switch m.mode {
	case adminList:
		header = headerStyle.Render(fmt.Sprintf("  Task inspector | %d tasks%s", len(m.tasks), m.filterSummary()))
		body = m.table.View()
		footer = footerStyle.Render("Enter detail • r refresh • q quit")
	case adminDetail:
		header = headerStyle.Render("  Task " + m.selected.ID)
		body = m.detail.View()
		footer = footerStyle.Render("Esc back • ↑↓ scroll • Ctrl+C quit")
	}
	if m.err != nil {
		footer += lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("  " + m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// ─────────────────────────────────────────────────────────
// Rendering
// ─────────────────────────────────────────────────────────

func (m *adminModel) taskRows() []table.Row {
	rows := make([]table.Row, 0, len(m.tasks))
	for _, snap := range m.tasks {
		progressCell := ""
		if snap.ShowProgress() {
			progressCell = fmt.Sprintf("%d%%", *snap.Progress)
		}
		rows = append(rows, table.Row{
			shortID(snap.ID),
			snap.Type,
			string(snap.Status),
			progressCell,
			snap.CurrentStep,
			snap.CreatedAt.Local().Format("01-02 15:04:05"),
		})
	}
	return rows
}

// renderDetail fills the detail viewport with the selected snapshot and its
// event log.
func (m *adminModel) renderDetail() {
	snap := m.selected
	if snap == nil {
		return
	}

	var b strings.Builder
	b.WriteString(keyValueLines([][2]string{
		{"Task", snap.ID},
		{"Agent", snap.AgentID},
		{"Org", snap.OrgID},
		{"Type", snap.Type},
		{"Status", statusBadge(snap.Status)},
		{"Created", snap.CreatedAt.Local().Format("2006-01-02 15:04:05")},
	}))
	if snap.ShowProgress() {
		b.WriteString("\n" + m.bar.ViewAs(float64(*snap.Progress)/100) + fmt.Sprintf("  %d%%\n", *snap.Progress))
		if snap.CurrentStep != "" {
			b.WriteString(snap.CurrentStep + "\n")
		}
		if snap.ETASeconds != nil && *snap.ETASeconds > 0 {
			b.WriteString(gray(etaText(*snap.ETASeconds)) + "\n")
		}
	}
	if snap.Error != "" {
		b.WriteString("\n" + red(snap.Error) + "\n")
	}
	if snap.Output != nil {
		if raw := snap.Output.Raw(); raw != nil {
			if encoded, err := json.MarshalIndent(raw, "", "  "); err == nil {
				b.WriteString("\n" + bold("Output:") + "\n" + string(encoded) + "\n")
			}
		}
		if snap.Output.DashboardURL != "" {
			b.WriteString(bold("Dashboard: ") + cyan(snap.Output.DashboardURL) + "\n")
		}
	}

	b.WriteString("\n" + bold("Event log:") + "\n")
	if len(m.events) == 0 {
		b.WriteString(gray("  (loading)") + "\n")
	}
	for _, e := range m.events {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			gray(formatTimestamp(e.Timestamp)), e.EventType, payloadSummary(e.Payload)))
		if len(e.Payload) > 0 {
			if encoded, err := json.MarshalIndent(map[string]any(e.Payload), "    ", "  "); err == nil {
				b.WriteString("    " + gray(string(encoded)) + "\n")
			}
		}
	}

	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

func (m adminModel) filterSummary() string {
	parts := []string{}
	if m.filter.OrgID != "" {
		parts = append(parts, "org="+m.filter.OrgID)
	}
	if m.filter.AgentID != "" {
		parts = append(parts, "agent="+m.filter.AgentID)
	}
	if m.filter.Status != "" {
		parts = append(parts, "status="+m.filter.Status)
	}
	if len(parts) == 0 {
		return ""
	}
	return " | " + strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
