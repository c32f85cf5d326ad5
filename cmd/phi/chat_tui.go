package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"phi/internal/api"
	"phi/internal/chat"
	"phi/internal/task"
	"phi/internal/voice"
)

// chatPhase is the input-side lifecycle of the chat view. The task itself is
// tracked by the projector; the phase only gates what the user can do.
type chatPhase int

const (
	phaseReady    chatPhase = iota // input accepted
	phaseStarting                  // task-start request in flight
	phaseRunning                   // projector bound, polling
)

// ─────────────────────────────────────────────────────────
// Messages
// ─────────────────────────────────────────────────────────

// transcriptMsg carries one recognized utterance from the voice bridge.
type transcriptMsg struct {
	text string
}

// taskStartedMsg reports a successful task-start request.
type taskStartedMsg struct {
	taskID string
}

// taskStartFailedMsg reports a failed task-start request.
type taskStartFailedMsg struct {
	err error
}

// projectorMsg wraps a polling update for delivery into the event loop.
type projectorMsg struct {
	update task.Update
}

// chatModel is the interactive chat view: message log on top, task execution
// panel in the middle while a task is live, input at the bottom.
type chatModel struct {
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	bar      progress.Model
	renderer *glamour.TermRenderer

	app       *App
	agent     *api.Agent
	session   *chat.Session
	bridge    *voice.Bridge
	projector *task.Projector
	events    chan tea.Msg

	ctx    context.Context
	cancel context.CancelFunc

	phase    chatPhase
	snapshot *task.Snapshot
	unknown  bool

	width  int
	height int
	ready  bool
	err    error
}

func newChatModel(app *App, agent *api.Agent, session *chat.Session, bridge *voice.Bridge, events chan tea.Msg) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask " + agent.Name + " to analyze data or run a report... (Enter to send)"
	ta.Focus()
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	bar := progress.New(progress.WithDefaultGradient())

	ctx, cancel := context.WithCancel(context.Background())
	m := chatModel{
		viewport: viewport.New(80, 20),
		textarea: ta,
		spinner:  sp,
		bar:      bar,
		app:      app,
		agent:    agent,
		session:  session,
		bridge:   bridge,
		events:   events,
		ctx:      ctx,
		cancel:   cancel,
		phase:    phaseReady,
	}
	m.projector = task.NewProjector(app.Client, func(u task.Update) {
		select {
		case events <- projectorMsg{update: u}:
		case <-ctx.Done():
		}
	}, task.WithInterval(app.Config.PollInterval))
	return m
}

// ─────────────────────────────────────────────────────────
// Bubbletea interface
// ─────────────────────────────────────────────────────────

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.waitForEvent())
}

// waitForEvent relays bridge and projector events into the update loop. It is
// re-armed after every delivered event.
func (m chatModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 1
		footerHeight := 1
		textareaHeight := 4
		panelHeight := 0
		if m.snapshot != nil {
			panelHeight = lipgloss.Height(m.renderTaskPanel())
		}
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - headerHeight - footerHeight - textareaHeight - panelHeight
		m.textarea.SetWidth(msg.Width - 4)
		m.bar.Width = msg.Width - 20

		if m.renderer == nil {
			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(m.viewport.Width-8),
			)
			if err != nil {
				m.err = fmt.Errorf("initialize renderer: %w", err)
			} else {
				m.renderer = renderer
			}
		}
		if !m.ready {
			m.ready = true
		}
		m.updateViewportContent()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.shutdown()
			return m, tea.Quit

		case tea.KeyEnter:
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" || m.phase != phaseReady {
				return m, nil
			}
			m.textarea.Reset()
			return m, m.send(text)

		case tea.KeyCtrlG:
			// Push-to-talk toggle. Starting requires idle; a second press
			// while listening aborts the pass.
			if !m.bridge.Supported() {
				m.err = errors.New(m.bridge.UnsupportedMessage())
				return m, nil
			}
			if m.bridge.Listening() {
				m.bridge.StopListening()
			} else {
				m.bridge.StartListening(m.ctx)
			}
			return m, nil

		case tea.KeyCtrlT:
			enabled := !m.session.VoiceEnabled()
			m.session.SetVoiceEnabled(enabled)
			m.bridge.SetMuted(!enabled)
			return m, nil

		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case transcriptMsg:
		// Recognized speech is sent like typed input.
		cmds = append(cmds, m.waitForEvent())
		text := strings.TrimSpace(msg.text)
		if text != "" && m.phase == phaseReady {
			cmds = append(cmds, m.send(text))
		}
		return m, tea.Batch(cmds...)

	case taskStartedMsg:
		m.session.OnTaskStarted(msg.taskID)
		m.phase = phaseRunning
		m.snapshot = nil
		m.unknown = false
		m.projector.Bind(m.ctx, msg.taskID)
		m.updateViewportContent()
		return m, nil

	case taskStartFailedMsg:
		detail := ""
		var apiErr *api.Error
		if errors.As(msg.err, &apiErr) {
			detail = apiErr.Detail
		} else if msg.err != nil {
			detail = msg.err.Error()
		}
		m.session.OnTaskStartFailed(detail)
		m.phase = phaseReady
		m.updateViewportContent()
		return m, nil

	case projectorMsg:
		cmds = append(cmds, m.waitForEvent())
		u := msg.update
		m.unknown = u.Unknown
		if u.Snapshot != nil {
			m.snapshot = u.Snapshot
			if u.Snapshot.Status.Terminal() {
				m.session.OnTaskSettled(u.Snapshot)
				m.phase = phaseReady
			}
		}
		m.updateViewportContent()
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(m.width)
	header := headerStyle.Render(fmt.Sprintf("  %s | %s%s", m.agent.Name, m.phaseString(), m.voiceIndicator()))

	sections := []string{header, m.viewport.View()}
	if m.snapshot != nil {
		sections = append(sections, m.renderTaskPanel())
	}
	sections = append(sections, m.textarea.View(), m.footer())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// ─────────────────────────────────────────────────────────
// Rendering
// ─────────────────────────────────────────────────────────

// updateViewportContent re-renders the session's message log.
func (m *chatModel) updateViewportContent() {
	var b strings.Builder
	for i, msg := range m.session.Messages() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderSessionMessage(msg))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *chatModel) renderSessionMessage(msg chat.Message) string {
	roleStyle := lipgloss.NewStyle().Bold(true)
	prefix := ""
	switch msg.Role {
	case chat.RoleUser:
		roleStyle = roleStyle.Foreground(lipgloss.Color("10"))
		prefix = "You"
	case chat.RoleAssistant:
		roleStyle = roleStyle.Foreground(lipgloss.Color("12"))
		prefix = m.agent.Name
	case chat.RoleSystem:
		roleStyle = roleStyle.Foreground(lipgloss.Color("8"))
		prefix = m.agent.Name
	}

	var b strings.Builder
	b.WriteString(roleStyle.Render(fmt.Sprintf("%s [%s]", prefix, formatTimestamp(msg.Timestamp))))
	b.WriteString("\n")

	content := msg.Content
	if msg.Role != chat.RoleUser && m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			content = strings.TrimSpace(rendered)
		}
	}
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(content))
	return b.String()
}

// renderTaskPanel is the live execution view for the bound task: status,
// progress, timeline, and on success the task output.
func (m *chatModel) renderTaskPanel() string {
	snap := m.snapshot
	if snap == nil {
		return ""
	}

	var b strings.Builder
	title := statusBadge(snap.Status)
	if !snap.Status.Terminal() {
		title = m.spinner.View() + " " + title
	}
	b.WriteString(fmt.Sprintf("%s  %s\n", title, bold(snap.Type)))

	if m.unknown {
		b.WriteString(yellow("status unknown: task fetches keep failing, still retrying") + "\n")
	}
	if snap.ShowProgress() {
		b.WriteString(m.bar.ViewAs(float64(*snap.Progress)/100) + fmt.Sprintf("  %d%%\n", *snap.Progress))
		if snap.CurrentStep != "" {
			b.WriteString(snap.CurrentStep + "\n")
		}
		if snap.ETASeconds != nil && *snap.ETASeconds > 0 {
			b.WriteString(gray(etaText(*snap.ETASeconds)) + "\n")
		}
	}
	if snap.Error != "" {
		b.WriteString(red(snap.Error) + "\n")
	}

	if events := snap.TimelineEvents(); len(events) > 0 {
		b.WriteString(bold("Agent actions:") + "\n")
		for _, e := range events {
			b.WriteString("  " + describeEvent(e) + "\n")
		}
	}

	if snap.Status == task.StatusSuccess && snap.Output != nil {
		out := snap.Output
		if out.FullReportMD != "" {
			report := out.FullReportMD
			if m.renderer != nil {
				if rendered, err := m.renderer.Render(report); err == nil {
					report = strings.TrimSpace(rendered)
				}
			}
			b.WriteString("\n" + report + "\n")
		} else if out.SummaryText != "" {
			b.WriteString("\n" + out.SummaryText + "\n")
		}
		if out.DashboardURL != "" {
			b.WriteString(bold("Interactive dashboard: ") + cyan(out.DashboardURL) + "\n")
		}
	}

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Width(m.width - 4)
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m chatModel) phaseString() string {
	switch m.phase {
	case phaseStarting:
		return "Starting task..."
	case phaseRunning:
		return "Working..."
	default:
		return "Ready"
	}
}

func (m chatModel) voiceIndicator() string {
	parts := ""
	if m.bridge.Listening() {
		parts += " | 🎤 listening"
	}
	if !m.session.VoiceEnabled() {
		parts += " | voice off"
	}
	return parts
}

func (m chatModel) footer() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	key := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)

	parts := []string{
		key.Render("Enter"), muted.Render("send • "),
		key.Render("Ctrl+G"), muted.Render("talk • "),
		key.Render("Ctrl+T"), muted.Render("voice on/off • "),
		key.Render("↑↓"), muted.Render("scroll • "),
		key.Render("Ctrl+C"), muted.Render("quit"),
	}
	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		parts = append(parts, errStyle.Render(" "+m.err.Error()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

// ─────────────────────────────────────────────────────────
// Actions
// ─────────────────────────────────────────────────────────

// send appends the user's message and starts the derived task in the
// background. The session handles the thinking notice and speech.
func (m *chatModel) send(text string) tea.Cmd {
	taskType := m.session.AppendUserMessage(text)
	m.phase = phaseStarting
	m.updateViewportContent()

	client := m.app.Client
	agentID := m.agent.ID
	ctx := m.ctx
	return func() tea.Msg {
		snap, err := client.RunTask(ctx, agentID, taskType, map[string]any{"user_message": text})
		if err != nil {
			return taskStartFailedMsg{err: err}
		}
		return taskStartedMsg{taskID: snap.ID}
	}
}

// shutdown releases the projector and voice resources before quit.
func (m *chatModel) shutdown() {
	m.projector.Unbind()
	m.bridge.StopListening()
	m.bridge.StopSpeaking()
	m.cancel()
}
