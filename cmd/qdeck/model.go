package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qdeck/backends"
	"qdeck/config"
	"qdeck/ops"
	"qdeck/qasm"
	"qdeck/setups"
	"qdeck/sim"
)

// focus represents which panel has keyboard input.
type focus int

const (
	focusCommands focus = iota
	focusQASM
)

type qubitRow struct {
	id   ops.QubitID
	prob sim.QubitProbability
}

// Model is the stepper state. The command list is the compiled stream as
// the backend saw it; probabilities come from replaying a prefix of it.
type Model struct {
	cfg        *config.Config
	qasmEditor textarea.Model
	lastQASM   string
	focus      focus

	cmds      []ops.Command
	step      int // index of the last replayed command
	probs     []qubitRow
	statusMsg string

	width  int
	height int
}

func newModel(cfg *config.Config, src string) Model {
	ta := textarea.New()
	ta.Placeholder = "Edit QASM here..."
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.KeyMap.InsertNewline.SetEnabled(true)
	ta.SetValue(src)

	m := Model{cfg: cfg.WithDefaults(), qasmEditor: ta, focus: focusCommands}
	m.cfg.Backend.Kind = config.BackendJSON
	m.compile()
	return m
}

// compile rebuilds the command stream from the editor. On error the previous
// stream is kept.
func (m *Model) compile() {
	src := m.qasmEditor.Value()
	m.lastQASM = src
	prog, err := qasm.Parse(src)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	s, err := setups.Build(m.cfg)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	if _, _, err := prog.Run(s.Main); err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.cmds = s.Backend.(*backends.JSONBackend).Commands()
	m.step = len(m.cmds) - 1
	m.statusMsg = ""
	m.replay()
}

// replay simulates the commands up to and including the cursor.
func (m *Model) replay() {
	opts := []sim.Option{sim.WithMatrixCache(*m.cfg.Backend.MatrixCache)}
	if m.cfg.Backend.Seed != nil {
		opts = append(opts, sim.WithSeed(*m.cfg.Backend.Seed))
	}
	s := sim.New(opts...)
	m.probs = nil
	if err := s.Receive(m.cmds[:m.step+1]); err != nil {
		m.statusMsg = err.Error()
		return
	}
	for id, p := range s.Probabilities() {
		m.probs = append(m.probs, qubitRow{id: id, prob: p})
	}
	slices.SortFunc(m.probs, func(a, b qubitRow) int { return int(a.id) - int(b.id) })
}

func (m *Model) moveStep(delta int) {
	next := min(max(m.step+delta, -1), len(m.cmds)-1)
	if next != m.step {
		m.step = next
		m.replay()
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.qasmEditor.SetWidth(max(msg.Width/3-6, 20))
		m.qasmEditor.SetHeight(max(msg.Height-controlsHeight-12, 4))

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCommands:
			m.statusMsg = ""
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				m.qasmEditor.Focus()
			case "up", "k":
				m.moveStep(-1)
			case "down", "j":
				m.moveStep(1)
			case "pgup":
				m.moveStep(-10)
			case "pgdown":
				m.moveStep(10)
			case "home", "g":
				m.moveStep(-len(m.cmds))
			case "end", "G":
				m.moveStep(len(m.cmds))
			case "ctrl+s":
				if err := os.WriteFile("circuit.qasm", []byte(m.qasmEditor.Value()), 0644); err != nil {
					m.statusMsg = fmt.Sprintf("Save error: %v", err)
				} else {
					m.statusMsg = "Saved circuit.qasm"
				}
			}

		case focusQASM:
			switch key {
			case "tab", "esc":
				m.focus = focusCommands
				m.qasmEditor.Blur()
			default:
				var cmd tea.Cmd
				m.qasmEditor, cmd = m.qasmEditor.Update(msg)
				cmds = append(cmds, cmd)
				if m.qasmEditor.Value() != m.lastQASM {
					m.compile()
				}
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 3
	streamWidth := m.width - qasmWidth - 4
	panelHeight := max(m.height-controlsHeight-2, 6)
	streamHeight := max(panelHeight/2, 4)

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStreamPanel(streamWidth, streamHeight),
		m.renderProbabilityPanel(streamWidth, panelHeight-streamHeight-2),
	)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderQASMPanel(qasmWidth, panelHeight))
	return lipgloss.JoinVertical(lipgloss.Left, topRow, m.renderControlsPanel(m.width-4, controlsHeight-2))
}
