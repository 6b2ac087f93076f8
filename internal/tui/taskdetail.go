package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/cadence/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginTop(1)
)

// TaskDetailModel manages the task detail screen.
type TaskDetailModel struct {
	backend Backend
	taskID  string
	task    *models.Task
	history []models.DecisionRecord
	width   int
	height  int
	loading bool
	scroll  int
}

// NewTaskDetailModel creates a new task detail model.
func NewTaskDetailModel(backend Backend) *TaskDetailModel {
	return &TaskDetailModel{backend: backend}
}

// SetTask sets the task ID to display.
func (m *TaskDetailModel) SetTask(id string) {
	m.taskID = id
	m.task = nil
	m.history = nil
	m.scroll = 0
}

// TaskID returns the task on display.
func (m *TaskDetailModel) TaskID() string {
	return m.taskID
}

// SetSize sets the dimensions.
func (m *TaskDetailModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Refresh fetches task details.
func (m *TaskDetailModel) Refresh() tea.Cmd {
	m.loading = true
	id := m.taskID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		task, err := m.backend.GetTask(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		history, _ := m.backend.History(ctx, id, 5)
		return taskDetailLoadedMsg{task, history}
	}
}

// Update handles messages.
func (m *TaskDetailModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case taskDetailLoadedMsg:
		if msg.task == nil || msg.task.ID != m.taskID {
			return nil
		}
		m.loading = false
		m.task = msg.task
		m.history = msg.history

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			m.scroll++
		case "k", "up":
			if m.scroll > 0 {
				m.scroll--
			}
		}
	}
	return nil
}

// View renders the task detail.
func (m *TaskDetailModel) View() string {
	if m.task == nil {
		return "Loading task details..."
	}

	var b strings.Builder
	t := m.task

	b.WriteString(headerStyle.Render(t.Title))
	b.WriteString("\n\n")

	b.WriteString(m.renderField("ID", t.ID))
	b.WriteString(m.renderField("Status", formatStatus(t.Status)))
	b.WriteString(m.renderField("Priority", t.Priority.String()))
	b.WriteString(m.renderOptional("Due", t.DueDate))
	b.WriteString(m.renderOptional("Scheduled", t.ScheduledDate))
	if t.DueTime != nil {
		block := *t.DueTime
		if t.Duration != nil {
			block += fmt.Sprintf(" for %d min", *t.Duration)
		}
		b.WriteString(m.renderField("Time", block))
	}
	if t.IsEvening {
		b.WriteString(m.renderField("Evening", "yes"))
	}
	b.WriteString(m.renderOptional("Project", t.ProjectID))
	b.WriteString(m.renderOptional("Area", t.AreaID))
	if len(t.Tags) > 0 {
		b.WriteString(m.renderField("Tags", strings.Join(t.Tags, ", ")))
	}
	if r := t.RecurringRule; r != nil {
		rule := fmt.Sprintf("every %d × %s", r.Interval, r.Frequency)
		if days := r.Weekdays(); len(days) > 0 {
			names := make([]string, len(days))
			for i, d := range days {
				names[i] = time.Weekday(d).String()[:3]
			}
			rule += " on " + strings.Join(names, ",")
		}
		b.WriteString(m.renderField("Repeats", rule))
	}
	if t.CompletedAt != nil {
		b.WriteString(m.renderField("Completed", t.CompletedAt.Local().Format(time.RFC822)))
	}
	b.WriteString(m.renderField("Created", t.CreatedAt.Local().Format(time.RFC822)))
	if t.Notes != "" {
		b.WriteString(m.renderField("Notes", truncate(t.Notes, 200)))
	}

	if len(t.Checklist) > 0 {
		b.WriteString(sectionStyle.Render("Checklist"))
		b.WriteString("\n")
		for _, item := range t.Checklist {
			box := "[ ]"
			if item.Done {
				box = statusCompleted.Render("[x]")
			}
			b.WriteString(fmt.Sprintf("  %s %s\n", box, item.Text))
		}
	}

	if len(m.history) > 0 {
		b.WriteString(sectionStyle.Render("History"))
		b.WriteString("\n")
		for _, rec := range m.history {
			outcome := statusCompleted.Render(rec.Outcome)
			if rec.Outcome != "success" {
				outcome = overdueStyle.Render(rec.Outcome)
			}
			b.WriteString(fmt.Sprintf("  %s  %-14s %s\n", rec.Timestamp.Local().Format("Jan 02 15:04"), rec.Action, outcome))
		}
	}

	lines := strings.Split(b.String(), "\n")
	if m.scroll >= len(lines) {
		m.scroll = len(lines) - 1
	}
	visible := lines[m.scroll:]
	if m.height > 0 && len(visible) > m.height {
		visible = visible[:m.height]
	}
	return strings.Join(visible, "\n")
}

func (m *TaskDetailModel) renderField(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func (m *TaskDetailModel) renderOptional(label string, value *string) string {
	if value == nil {
		return ""
	}
	return m.renderField(label, *value)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

type taskDetailLoadedMsg struct {
	task    *models.Task
	history []models.DecisionRecord
}
