package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/planner"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// CmdBarModel manages the command input bar
type CmdBarModel struct {
	input   textinput.Model
	focused bool
	message string
}

// NewCmdBarModel creates a new command bar
func NewCmdBarModel() *CmdBarModel {
	ti := textinput.New()
	ti.Placeholder = "add Buy milk due:2024-01-10 p:2 #errands"
	ti.CharLimit = 256
	return &CmdBarModel{
		input: ti,
	}
}

// Focus focuses the command bar
func (m *CmdBarModel) Focus() {
	m.focused = true
	m.input.Focus()
	m.message = ""
}

// Blur unfocuses the command bar
func (m *CmdBarModel) Blur() {
	m.focused = false
	m.input.Blur()
	m.input.SetValue("")
}

// Focused reports whether the bar is taking input.
func (m *CmdBarModel) Focused() bool {
	return m.focused
}

// Value returns the current input.
func (m *CmdBarModel) Value() string {
	return m.input.Value()
}

// SetValue replaces the input, moving the cursor to the end.
func (m *CmdBarModel) SetValue(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// Submit returns the current input and blurs
func (m *CmdBarModel) Submit() string {
	val := m.input.Value()
	m.Blur()
	return val
}

// SetMessage shows a one-line status in place of the prompt.
func (m *CmdBarModel) SetMessage(s string) {
	m.message = s
}

// Update handles messages
func (m *CmdBarModel) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the command bar
func (m *CmdBarModel) View() string {
	if m.focused {
		prompt := promptStyle.Render(": ")
		return cmdBarStyle.Render(prompt + m.input.View())
	}
	if m.message != "" {
		return cmdBarStyle.Render(m.message)
	}
	return cmdBarStyle.Render("Press : to enter command (add, done, reopen, rm, goto, quit)")
}

// Execute processes a command. selected returns the task under the cursor.
func (m *CmdBarModel) Execute(backend Backend, input string, selected func() string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "quit", "q":
		return tea.Quit
	case "goto":
		if len(args) != 1 {
			return resultCmd("Usage: goto <bucket>")
		}
		return func() tea.Msg { return gotoBucketMsg{args[0]} }
	}

	taskID := selected()
	if len(args) > 0 && cmd != "add" {
		taskID = args[0]
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()

		switch cmd {
		case "add":
			in, err := parseAdd(args)
			if err != nil {
				return cmdResultMsg{fmt.Sprintf("Error: %v", err)}
			}
			task, err := backend.CreateTask(ctx, in)
			if err != nil {
				return cmdResultMsg{fmt.Sprintf("Error: %v", err)}
			}
			return cmdResultMsg{fmt.Sprintf("Created task: %s", shortID(task.ID))}

		case "done":
			if taskID == "" {
				return cmdResultMsg{"No task selected"}
			}
			res, err := backend.CompleteTask(ctx, taskID)
			if err != nil {
				return cmdResultMsg{fmt.Sprintf("Error: %v", err)}
			}
			if res.Next != nil && res.Next.DueDate != nil {
				return cmdResultMsg{fmt.Sprintf("Completed; next due %s", *res.Next.DueDate)}
			}
			return cmdResultMsg{"Task completed"}

		case "reopen":
			if taskID == "" {
				return cmdResultMsg{"No task selected"}
			}
			if _, err := backend.ReopenTask(ctx, taskID); err != nil {
				return cmdResultMsg{fmt.Sprintf("Error: %v", err)}
			}
			return cmdResultMsg{"Task reopened"}

		case "rm":
			if taskID == "" {
				return cmdResultMsg{"No task selected"}
			}
			if err := backend.DeleteTask(ctx, taskID); err != nil {
				return cmdResultMsg{fmt.Sprintf("Error: %v", err)}
			}
			return cmdResultMsg{"Task deleted"}

		default:
			return cmdResultMsg{fmt.Sprintf("Unknown command: %s", cmd)}
		}
	}
}

// parseAdd turns "add" arguments into a create request. Words of the form
// due:DATE, on:DATE, at:HH:MM, for:MIN, p:N and #tag set fields; the rest
// form the title.
func parseAdd(args []string) (planner.CreateTaskInput, error) {
	var in planner.CreateTaskInput
	var title []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "due:"):
			in.DueDate = models.StringPtr(strings.TrimPrefix(arg, "due:"))
		case strings.HasPrefix(arg, "on:"):
			in.ScheduledDate = models.StringPtr(strings.TrimPrefix(arg, "on:"))
		case strings.HasPrefix(arg, "at:"):
			in.DueTime = models.StringPtr(strings.TrimPrefix(arg, "at:"))
		case strings.HasPrefix(arg, "for:"):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "for:"))
			if err != nil {
				return in, fmt.Errorf("invalid duration %q", arg)
			}
			in.Duration = models.IntPtr(n)
		case strings.HasPrefix(arg, "p:"):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "p:"))
			if err != nil {
				return in, fmt.Errorf("invalid priority %q", arg)
			}
			in.Priority = models.Priority(n)
		case arg == "evening":
			in.IsEvening = true
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			in.Tags = append(in.Tags, arg[1:])
		default:
			title = append(title, arg)
		}
	}
	if len(title) == 0 {
		return in, fmt.Errorf("usage: add <title> [due:DATE] [on:DATE] [at:HH:MM] [for:MIN] [p:N] [#tag] [evening]")
	}
	in.Title = strings.Join(title, " ")
	if in.DueDate != nil || in.ScheduledDate != nil {
		in.Status = models.TaskStatusActive
	}
	return in, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func resultCmd(s string) tea.Cmd {
	return func() tea.Msg { return cmdResultMsg{s} }
}

type cmdResultMsg struct {
	message string
}

type gotoBucketMsg struct {
	bucket string
}
