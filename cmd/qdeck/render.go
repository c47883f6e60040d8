package main

import (
	"fmt"
	"strings"

	"qdeck/ops"
)

// visibleWindow returns the first index of a window of height rows that
// keeps cursor in view.
func visibleWindow(cursor, total, height int) int {
	if total <= height || cursor < height/2 {
		return 0
	}
	return min(cursor-height/2, total-height)
}

// renderStreamPanel lists the compiled commands with the step cursor.
func (m Model) renderStreamPanel(width, height int) string {
	var sb strings.Builder

	title := fmt.Sprintf("Compiled Commands (%d)", len(m.cmds))
	if m.focus == focusCommands {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	rows := max(height-4, 1)
	if m.step < 0 {
		sb.WriteString(cursorStyle.Render("▸ (initial state)"))
		sb.WriteString("\n")
		rows--
	}
	start := visibleWindow(max(m.step, 0), len(m.cmds), rows)
	for i := start; i < min(start+rows, len(m.cmds)); i++ {
		line := fmt.Sprintf("%4d  %s", i, m.cmds[i])
		switch {
		case i == m.step:
			sb.WriteString(cursorStyle.Render("▸ " + line))
		case i > m.step:
			sb.WriteString(dimStyle.Render("  " + line))
		case ops.IsStructural(m.cmds[i].Gate):
			sb.WriteString(dimStyle.Render("  " + line))
		default:
			sb.WriteString(gateStyle.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	return streamStyle.Width(width).Height(height).Render(sb.String())
}

// renderProbabilityPanel draws P(1) of every live qubit after the cursor.
func (m Model) renderProbabilityPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Qubit Probabilities"))
	sb.WriteString("\n\n")
	if len(m.probs) == 0 {
		sb.WriteString(dimStyle.Render("no qubits allocated"))
	}
	for _, r := range m.probs {
		filled := int(r.prob.Prob1*barWidth + 0.5)
		fmt.Fprintf(&sb, "%s %s%s %.3f\n",
			qubitLabelStyle.Render(fmt.Sprintf("%-6s", fmt.Sprintf("q[%d]", r.id))),
			activeStyle.Render(strings.Repeat("█", filled)),
			dimStyle.Render(strings.Repeat("░", barWidth-filled)),
			r.prob.Prob1)
	}

	return probStyle.Width(width).Height(max(height, 3)).Render(sb.String())
}

// renderQASMPanel renders the QASM editor panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "QASM Editor"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmEditor.View())

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Step  PgUp/PgDn Jump  g/G First/Last")
	sb.WriteString("\n")
	sb.WriteString(activeStyle.Render("Actions:  "))
	sb.WriteString("Tab Switch focus  ^S Save  q/^C Quit")
	if m.statusMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render(m.statusMsg))
	}

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}
