package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/planner"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusInbox     = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	statusActive    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // Blue
	statusCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	statusCancelled = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // Grey
	overdueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
)

// TaskItem implements list.Item for one task in a bucket.
type TaskItem struct {
	Task    models.Task
	Section string // logbook date, empty elsewhere
	Today   string
}

func (i TaskItem) FilterValue() string { return i.Task.Title }

func (i TaskItem) Title() string {
	box := "[ ]"
	if i.Task.Status == models.TaskStatusCompleted {
		box = "[x]"
	}
	if i.Task.Priority > models.PriorityNone {
		return fmt.Sprintf("%s %s %s", box, i.Task.Title, strings.Repeat("!", int(i.Task.Priority)))
	}
	return box + " " + i.Task.Title
}

func (i TaskItem) Description() string {
	parts := []string{formatStatus(i.Task.Status)}
	if i.Section != "" {
		parts = append(parts, "done "+i.Section)
	}
	if d := i.Task.DueDate; d != nil {
		due := "due " + *d
		if i.Task.Status.Open() && i.Today != "" && *d < i.Today {
			due = overdueStyle.Render(due)
		}
		parts = append(parts, due)
	}
	if i.Task.ScheduledDate != nil {
		parts = append(parts, "on "+*i.Task.ScheduledDate)
	}
	if i.Task.DueTime != nil {
		block := "at " + *i.Task.DueTime
		if i.Task.Duration != nil {
			block += fmt.Sprintf(" (%dm)", *i.Task.Duration)
		}
		parts = append(parts, block)
	}
	if len(i.Task.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(i.Task.Tags, " #"))
	}
	if i.Task.RecurringRule != nil {
		parts = append(parts, "↻ "+string(i.Task.RecurringRule.Frequency))
	}
	return strings.Join(parts, " • ")
}

func formatStatus(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusInbox:
		return statusInbox.Render("● inbox")
	case models.TaskStatusActive:
		return statusActive.Render("● active")
	case models.TaskStatusCompleted:
		return statusCompleted.Render("● completed")
	case models.TaskStatusCancelled:
		return statusCancelled.Render("● cancelled")
	default:
		return string(status)
	}
}

// TaskListModel shows the tasks of one bucket.
type TaskListModel struct {
	list   list.Model
	bucket string
	width  int
	height int
}

// NewTaskListModel creates a new task list model.
func NewTaskListModel() *TaskListModel {
	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 80, 20)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = listTitleStyle

	return &TaskListModel{list: l}
}

// SetSize sets the list dimensions.
func (m *TaskListModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.list.SetSize(w, h)
}

// SetView replaces the items with a freshly computed bucket. The cursor
// stays on the same index where possible.
func (m *TaskListModel) SetView(view *planner.BucketView) tea.Cmd {
	m.bucket = view.Name
	m.list.Title = strings.ToUpper(view.Name[:1]) + view.Name[1:]

	var items []list.Item
	if view.Name == planner.BucketLogbook {
		for _, day := range view.Days {
			for _, t := range day.Tasks {
				items = append(items, TaskItem{Task: t, Section: day.Date, Today: view.Date})
			}
		}
	} else {
		for _, t := range view.Tasks {
			items = append(items, TaskItem{Task: t, Today: view.Date})
		}
	}

	idx := m.list.Index()
	cmd := m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	return cmd
}

// Len returns the number of tasks shown.
func (m *TaskListModel) Len() int {
	return len(m.list.Items())
}

// SelectedTask returns the task under the cursor.
func (m *TaskListModel) SelectedTask() *models.Task {
	if item, ok := m.list.SelectedItem().(TaskItem); ok {
		task := item.Task
		return &task
	}
	return nil
}

// Update handles messages.
func (m *TaskListModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

// View renders the task list.
func (m *TaskListModel) View() string {
	if m.Len() == 0 {
		return "\n  " + helpStyle.Render("Nothing here. Press : and type add <title> to create a task.") + "\n"
	}
	return m.list.View()
}
