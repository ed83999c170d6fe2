package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/bfbridge/bridge"
	"github.com/wippyai/bfbridge/config"
	"github.com/wippyai/bfbridge/reader"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2D6A4F")).
			Padding(0, 1)

	opStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#95D5B2"))
	sigStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#74C0FC")).Faint(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2D6A4F"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#B7E4C7"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8787")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

// pageSize is how many operations the list shows at once.
const pageSize = 20

type interactiveModel struct {
	err      error
	cfg      *config.Config
	sess     *session
	file     string
	result   string
	ops      []operation
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectOp modelState = iota
	stateInputArgs
	stateShowResult
)

func newInteractiveModel(cfg *config.Config, file string) *interactiveModel {
	return &interactiveModel{
		cfg:   cfg,
		file:  file,
		ops:   operations(),
		state: stateSelectOp,
	}
}

type loadedMsg struct {
	err  error
	sess *session
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	s, err := openSession(m.cfg)
	if err != nil {
		return loadedMsg{err: err}
	}
	if m.file != "" {
		err := s.Read(context.Background(), func(r *reader.Reader) error {
			return r.Open(m.file)
		})
		if err != nil {
			s.close()
			return loadedMsg{err: err}
		}
	}
	return loadedMsg{sess: s}
}

func (m *interactiveModel) shutdown() {
	if m.sess != nil {
		m.sess.close()
		m.sess = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.err = msg.err
		m.sess = msg.sess
		return m, nil

	case callResultMsg:
		m.result, m.err = msg.result, msg.err
		m.state = stateShowResult
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}
		switch m.state {
		case stateSelectOp:
			return m.selectKey(msg)
		case stateShowResult:
			return m.resultKey(msg)
		}
	}

	if m.state == stateInputArgs {
		return m.updateInputs(msg)
	}
	return m, nil
}

func (m *interactiveModel) selectKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.shutdown()
		return m, tea.Quit
	case "up", "k":
		m.selected = max(m.selected-1, 0)
	case "down", "j":
		m.selected = min(m.selected+1, len(m.ops)-1)
	case "home", "g":
		m.selected = 0
	case "end", "G":
		m.selected = len(m.ops) - 1
	case "enter":
		if m.sess == nil {
			return m, nil
		}
		m.prepareInputs()
		if len(m.inputs) == 0 {
			return m, m.callOperation
		}
		m.state = stateInputArgs
		return m, textinput.Blink
	}
	return m, nil
}

func (m *interactiveModel) resultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.shutdown()
		return m, tea.Quit
	case "enter", "esc":
		m.state = stateSelectOp
		m.result, m.err = "", nil
	}
	return m, nil
}

func (m *interactiveModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			return m, m.callOperation
		case "esc":
			m.state = stateSelectOp
			m.inputs = nil
			return m, nil
		case "tab", "shift+tab":
			step := 1
			if key.String() == "shift+tab" {
				step = len(m.inputs) - 1
			}
			m.inputs[m.focusIdx].Blur()
			m.focusIdx = (m.focusIdx + step) % len(m.inputs)
			return m, m.inputs[m.focusIdx].Focus()
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) prepareInputs() {
	op := m.ops[m.selected]
	m.inputs = make([]textinput.Model, len(op.params))
	for i, p := range op.params {
		ti := textinput.New()
		ti.Placeholder = "int"
		if p == "path" {
			ti.Placeholder = "file"
		}
		ti.Prompt = p + ": "
		ti.Width = 60
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callOperation() tea.Msg {
	op := m.ops[m.selected]
	args := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = input.Value()
	}

	var out string
	err := m.sess.Do(context.Background(), func(inst *bridge.Instance) error {
		var err error
		out, err = op.run(inst, args)
		return err
	})
	return callResultMsg{result: out, err: err}
}

func (m *interactiveModel) View() string {
	switch {
	case m.err != nil && m.state != stateShowResult:
		return failStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + hintStyle.Render("ctrl+c quit")
	case m.sess == nil:
		return "Starting " + m.cfg.Backend + " VM..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("bfinfo " + m.cfg.Backend))
	if m.file != "" {
		b.WriteString(" " + m.file)
	}
	b.WriteString("\n\n")

	op := m.ops[m.selected]
	switch m.state {
	case stateSelectOp:
		m.viewList(&b)
		b.WriteString("\n" + hintStyle.Render(fmt.Sprintf("%d/%d  ↑/↓ move  enter call  q quit", m.selected+1, len(m.ops))))

	case stateInputArgs:
		fmt.Fprintf(&b, "%s %s\n\n", opStyle.Render(op.method.Name()), sigStyle.Render(op.method.Descriptor()))
		for _, input := range m.inputs {
			b.WriteString(input.View() + "\n")
		}
		b.WriteString("\n" + hintStyle.Render("tab next  enter call  esc back"))

	case stateShowResult:
		fmt.Fprintf(&b, "%s returned\n\n", opStyle.Render(op.method.Name()))
		if m.err != nil {
			b.WriteString(failStyle.Render(m.err.Error()))
		} else {
			b.WriteString(okStyle.Render(m.result))
		}
		b.WriteString("\n\n" + hintStyle.Render("enter back  q quit"))
	}
	return b.String()
}

// viewList renders a window of the operation list around the cursor.
func (m *interactiveModel) viewList(b *strings.Builder) {
	first := max(0, min(m.selected-pageSize/2, len(m.ops)-pageSize))
	last := min(len(m.ops), first+pageSize)
	for i := first; i < last; i++ {
		op := m.ops[i]
		line := op.method.Name() + "(" + strings.Join(op.params, ", ") + ")"
		if i == m.selected {
			b.WriteString(cursorStyle.Render("> "+line) + "\n")
			continue
		}
		b.WriteString("  " + opStyle.Render(line) + " " + sigStyle.Render(op.method.Descriptor()) + "\n")
	}
}

func runInteractive(cfg *config.Config, file string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	m := newInteractiveModel(cfg, file)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.shutdown()
	return err
}
