package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// secretPrompt is a single-line hidden input for key material.
type secretPrompt struct {
	ti        textinput.Model
	label     string
	cancelled bool
	done      bool
}

func newSecretPrompt(label string) *secretPrompt {
	ti := textinput.New()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.CharLimit = 512
	ti.Width = 80
	ti.Focus()
	return &secretPrompt{ti: ti, label: label}
}

func (p *secretPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (p *secretPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			p.done = true
			return p, tea.Quit
		case "esc", "ctrl+c":
			p.cancelled = true
			p.done = true
			return p, tea.Quit
		}
	}
	var cmd tea.Cmd
	p.ti, cmd = p.ti.Update(msg)
	return p, cmd
}

func (p *secretPrompt) View() string {
	if p.done {
		return ""
	}
	return PromptStyle.Render(SymbolPrompt) + " " + LabelStyle.Render(p.label) + " " + p.ti.View() + "\n"
}

// ReadSecret prompts for a secret without echoing it. On a terminal it runs
// the interactive prompt; otherwise it reads a line from stdin so the command
// stays scriptable.
func ReadSecret(label string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	p := newSecretPrompt(label)
	if _, err := tea.NewProgram(p).Run(); err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	if p.cancelled {
		return "", fmt.Errorf("cancelled")
	}
	return strings.TrimSpace(p.ti.Value()), nil
}
