// Package tui provides the interactive terminal UI for Cadence.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/cadence/internal/events"
	"github.com/fentz26/cadence/internal/planner"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// DefaultPollInterval is how often buckets are reloaded when no event
// stream is available.
const DefaultPollInterval = 5 * time.Second

const (
	modeList   = "list"
	modeDetail = "detail"
)

// Options configures an App.
type Options struct {
	// Events delivers change notifications. When nil the app polls.
	Events       <-chan events.Event
	PollInterval time.Duration
}

// App is the main TUI application model.
type App struct {
	backend     Backend
	list        *TaskListModel
	detail      *TaskDetailModel
	cmdbar      *CmdBarModel
	suggestions *Suggestions
	tabs        []string
	tabIdx      int
	mode        string
	today       string
	width       int
	height      int
	events      <-chan events.Event
	poll        time.Duration
}

// New creates a new TUI application over backend.
func New(backend Backend, opts Options) *App {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &App{
		backend:     backend,
		list:        NewTaskListModel(),
		detail:      NewTaskDetailModel(backend),
		cmdbar:      NewCmdBarModel(),
		suggestions: NewSuggestions(),
		tabs:        planner.BucketNames,
		mode:        modeList,
		events:      opts.Events,
		poll:        opts.PollInterval,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadBucket(), a.watch())
}

// Bucket returns the name of the active tab.
func (a *App) Bucket() string {
	return a.tabs[a.tabIdx]
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.cmdbar.Focused() {
			return a, a.updateCmdBar(msg)
		}
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(msg.Width, max(msg.Height-6, 5))
		a.detail.SetSize(msg.Width, max(msg.Height-6, 5))

	case bucketLoadedMsg:
		if msg.view.Name != a.Bucket() {
			return a, nil
		}
		a.today = msg.view.Date
		return a, a.list.SetView(msg.view)

	case taskDetailLoadedMsg:
		return a, a.detail.Update(msg)

	case cmdResultMsg:
		a.cmdbar.SetMessage(msg.message)
		return a, a.reload()

	case gotoBucketMsg:
		for i, name := range a.tabs {
			if name == msg.bucket {
				return a, a.switchTab(i)
			}
		}
		a.cmdbar.SetMessage(fmt.Sprintf("Unknown bucket: %s", msg.bucket))

	case changeMsg:
		return a, tea.Batch(a.reload(), a.watch())

	case tickMsg:
		return a, tea.Batch(a.reload(), a.watch())

	case errMsg:
		a.cmdbar.SetMessage("Error: " + msg.err.Error())

	default:
		if a.mode == modeList {
			return a, a.list.Update(msg)
		}
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return tea.Quit
	case ":":
		a.cmdbar.Focus()
		return textinput.Blink
	case "r":
		return a.reload()
	case "x":
		return a.cmdbar.Execute(a.backend, "done", a.currentID)
	case "u":
		return a.cmdbar.Execute(a.backend, "reopen", a.currentID)
	}

	if a.mode == modeDetail {
		if key == "esc" || key == "backspace" {
			a.mode = modeList
			return a.loadBucket()
		}
		return a.detail.Update(msg)
	}

	switch key {
	case "tab", "right", "l":
		return a.switchTab((a.tabIdx + 1) % len(a.tabs))
	case "shift+tab", "left", "h":
		return a.switchTab((a.tabIdx + len(a.tabs) - 1) % len(a.tabs))
	case "enter":
		if task := a.list.SelectedTask(); task != nil {
			a.mode = modeDetail
			a.detail.SetTask(task.ID)
			return a.detail.Refresh()
		}
		return nil
	}
	if len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(a.tabs) {
		return a.switchTab(int(key[0] - '1'))
	}
	return a.list.Update(msg)
}

func (a *App) updateCmdBar(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "tab":
		if line, ok := a.suggestions.Complete(); ok {
			a.cmdbar.SetValue(line)
			a.suggestions.Update(line)
		}
		return nil
	case "up":
		a.suggestions.Prev()
		return nil
	case "down":
		a.suggestions.Next()
		return nil
	case "enter":
		input := strings.TrimSpace(a.cmdbar.Submit())
		a.suggestions.Hide()
		return a.cmdbar.Execute(a.backend, input, a.currentID)
	case "esc":
		a.cmdbar.Blur()
		a.suggestions.Hide()
		return nil
	}
	cmd := a.cmdbar.Update(msg)
	a.suggestions.Update(a.cmdbar.Value())
	return cmd
}

// currentID is the task an action applies to: the one on display in the
// detail screen, otherwise the one under the list cursor.
func (a *App) currentID() string {
	if a.mode == modeDetail {
		return a.detail.TaskID()
	}
	if task := a.list.SelectedTask(); task != nil {
		return task.ID
	}
	return ""
}

func (a *App) switchTab(i int) tea.Cmd {
	a.tabIdx = i
	a.mode = modeList
	return a.loadBucket()
}

func (a *App) reload() tea.Cmd {
	if a.mode == modeDetail {
		return tea.Batch(a.loadBucket(), a.detail.Refresh())
	}
	return a.loadBucket()
}

func (a *App) loadBucket() tea.Cmd {
	name := a.Bucket()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultClientTimeout)
		defer cancel()
		view, err := a.backend.Bucket(ctx, name)
		if err != nil {
			return errMsg{err}
		}
		return bucketLoadedMsg{view}
	}
}

// watch waits for the next change notification, or for the next poll tick
// when there is no event stream.
func (a *App) watch() tea.Cmd {
	if a.events == nil {
		return tea.Tick(a.poll, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	}
	ch := a.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return changeMsg{ev}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	header := titleStyle.Render("◆ Cadence")
	if a.today != "" {
		header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(a.today)
	}
	b.WriteString(header + "\n")

	tabs := make([]string, len(a.tabs))
	for i, name := range a.tabs {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == a.tabIdx {
			tabs[i] = selectedStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")

	switch a.mode {
	case modeList:
		b.WriteString(a.list.View())
	case modeDetail:
		b.WriteString(a.detail.View())
	}
	b.WriteString("\n")

	if a.suggestions.IsVisible() {
		b.WriteString(a.suggestions.Render(a.width))
		b.WriteString("\n")
	}
	b.WriteString(a.cmdbar.View())
	b.WriteString("\n")

	var status string
	switch a.mode {
	case modeList:
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Tab/1-8:bucket | Enter:open | x:done | u:reopen | r:refresh | q:quit", a.list.Len())
	default:
		status = " Esc:back | x:done | u:reopen | ↑↓:scroll | q:quit"
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 1)).Render(status))

	return b.String()
}

type bucketLoadedMsg struct {
	view *planner.BucketView
}

type changeMsg struct {
	event events.Event
}

type tickMsg time.Time

type errMsg struct {
	err error
}
