package backends

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
)

// CommandPrinter writes each command on its own line. As the terminal engine
// it answers measurements with DefaultMeasure; otherwise it forwards.
type CommandPrinter struct {
	engine.Base
	DefaultMeasure bool

	w          io.Writer
	gate       lipgloss.Style
	structural lipgloss.Style
	measure    lipgloss.Style
}

// NewCommandPrinter styles output for w's terminal capabilities; plain
// writers get unstyled text.
func NewCommandPrinter(w io.Writer) *CommandPrinter {
	r := lipgloss.NewRenderer(w)
	return &CommandPrinter{
		w:          w,
		gate:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("#73daca")),
		structural: r.NewStyle().Foreground(lipgloss.Color("#565f89")),
		measure:    r.NewStyle().Foreground(lipgloss.Color("#e0af68")),
	}
}

func (p *CommandPrinter) IsAvailable(cmd ops.Command) bool {
	if p.IsLast() {
		return true
	}
	return p.Base.IsAvailable(cmd)
}

func (p *CommandPrinter) Receive(cmds []ops.Command) error {
	for _, cmd := range cmds {
		style := p.gate
		switch {
		case cmd.Gate.Kind() == ops.KindMeasure:
			style = p.measure
		case ops.IsStructural(cmd.Gate):
			style = p.structural
		}
		if _, err := io.WriteString(p.w, style.Render(cmd.String())+"\n"); err != nil {
			return errors.Wrap(err, "print command")
		}
	}
	if p.IsLast() {
		reportMeasurements(p.Main(), cmds, p.DefaultMeasure)
		return nil
	}
	return p.Send(cmds)
}
