package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// SelectorItem is one selectable entry, usually an account or a provider.
type SelectorItem struct {
	ID          string
	Label       string
	Description string
}

// Selector is an interactive list picker run as a standalone program for
// choices the command line cannot resolve, like which provider account to
// bind.
type Selector struct {
	title    string
	items    []SelectorItem
	cursor   int
	selected int
	done     bool
}

// NewSelector creates a selector over the given items.
func NewSelector(title string, items []SelectorItem) *Selector {
	return &Selector{
		title:    title,
		items:    items,
		selected: -1,
	}
}

// Selected returns the chosen item ID, or empty when cancelled.
func (s *Selector) Selected() string {
	if s.selected >= 0 && s.selected < len(s.items) {
		return s.items[s.selected].ID
	}
	return ""
}

func (s *Selector) Init() tea.Cmd {
	return nil
}

func (s *Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.items)-1 {
				s.cursor++
			}
		case "enter":
			s.selected = s.cursor
			s.done = true
			return s, tea.Quit
		case "esc", "q", "ctrl+c":
			s.selected = -1
			s.done = true
			return s, tea.Quit
		}
	}
	return s, nil
}

func (s *Selector) View() string {
	if s.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(HelpStyle.Render(s.title + " (↑/↓ navigate, enter select, esc cancel)"))
	b.WriteString("\n\n")

	for i, item := range s.items {
		isCursor := i == s.cursor

		if isCursor {
			b.WriteString(SelectorCursor.Render(SymbolArrow) + " ")
		} else {
			b.WriteString("  ")
		}

		display := item.Label
		if display == "" {
			display = item.ID
		}
		label := fmt.Sprintf("%-40s", display)
		if isCursor {
			b.WriteString(SelectorActive.Render(label))
		} else {
			b.WriteString(SelectorItemStyle.Render(label))
		}

		if item.Description != "" {
			b.WriteString(SelectorDim.Render(item.Description))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Select runs the selector to completion and returns the chosen item ID.
// Empty means the user cancelled.
func Select(title string, items []SelectorItem) (string, error) {
	if len(items) == 1 {
		return items[0].ID, nil
	}

	s := NewSelector(title, items)
	if _, err := tea.NewProgram(s).Run(); err != nil {
		return "", fmt.Errorf("run selector: %w", err)
	}
	return s.Selected(), nil
}
