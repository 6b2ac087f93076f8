package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/cadence/internal/planner"
)

// Suggestions provides autocomplete for the command bar
type Suggestions struct {
	filtered    []SuggestionItem
	selectedIdx int
	visible     bool
	header      string
	lead        string // text kept in front of the completed word
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
}

var commandSuggestions = []SuggestionItem{
	{Text: "add", Description: "Create a new task"},
	{Text: "done", Description: "Complete the selected task"},
	{Text: "reopen", Description: "Reopen the selected task"},
	{Text: "rm", Description: "Delete the selected task"},
	{Text: "goto", Description: "Switch to a bucket"},
	{Text: "quit", Description: "Leave cadence"},
}

var bucketDescriptions = map[string]string{
	planner.BucketToday:       "Due or scheduled today, or overdue",
	planner.BucketEvening:     "Today, after work",
	planner.BucketUpcoming:    "The coming days",
	planner.BucketOverdue:     "Past due and still open",
	planner.BucketUnscheduled: "No date at all",
	planner.BucketAnytime:     "Active without a date",
	planner.BucketSomeday:     "Inbox without a date",
	planner.BucketLogbook:     "Completed, grouped by day",
}

// NewSuggestions creates a new suggestions handler
func NewSuggestions() *Suggestions {
	return &Suggestions{}
}

// Update recomputes suggestions for the current input. The first word
// completes against commands; after "goto " it completes bucket names.
func (s *Suggestions) Update(input string) {
	s.visible = false
	s.filtered = nil
	s.selectedIdx = 0

	if input == "" || strings.Contains(strings.TrimPrefix(input, "goto "), " ") {
		return
	}

	if rest, ok := strings.CutPrefix(input, "goto "); ok {
		s.header = "Buckets"
		s.lead = "goto "
		for _, name := range planner.BucketNames {
			if strings.HasPrefix(name, strings.ToLower(rest)) {
				s.filtered = append(s.filtered, SuggestionItem{Text: name, Description: bucketDescriptions[name]})
			}
		}
	} else if !strings.Contains(input, " ") {
		s.header = "Commands"
		s.lead = ""
		query := strings.ToLower(input)
		for _, item := range commandSuggestions {
			if strings.HasPrefix(item.Text, query) {
				s.filtered = append(s.filtered, item)
			}
		}
	}
	s.visible = len(s.filtered) > 0
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// Complete returns the input with the selected suggestion filled in.
func (s *Suggestions) Complete() (string, bool) {
	sel := s.Selected()
	if sel == nil {
		return "", false
	}
	return s.lead + sel.Text + " ", true
}

// Hide closes the dropdown.
func (s *Suggestions) Hide() {
	s.visible = false
	s.filtered = nil
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	suggestionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#6366F1")).
		Padding(0, 1).
		Width(max(width-4, 20))

	selectedStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("#7C3AED")).
		Foreground(lipgloss.Color("#F9FAFB")).
		Bold(true)

	itemStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F9FAFB"))

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Italic(true)

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Render(s.header))
	b.WriteString("\n")

	maxVisible := 5
	for i, item := range s.filtered {
		if i >= maxVisible {
			b.WriteString(descStyle.Render(fmt.Sprintf("  ... and %d more", len(s.filtered)-maxVisible)))
			break
		}

		var line string
		if i == s.selectedIdx {
			line = selectedStyle.Render("▶ " + item.Text)
			if item.Description != "" {
				line += " " + selectedStyle.Render(item.Description)
			}
		} else {
			line = itemStyle.Render("  " + item.Text)
			if item.Description != "" {
				line += " " + descStyle.Render(item.Description)
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return suggestionStyle.Render(b.String())
}
