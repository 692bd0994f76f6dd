package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// Banner renders the final status block for the terminal.
func Banner(o Outcome) string {
	var b strings.Builder

	if o.Result.Succeeded() {
		b.WriteString(successStyle.Render("✔ Playbook completed successfully"))
	} else {
		b.WriteString(failureStyle.Render(fmt.Sprintf("✘ Playbook failed (exit %d)", o.Result.ExitStatus)))
	}
	if o.Run.Check {
		b.WriteString(" [check mode]")
	}
	b.WriteString("\n\n")

	c := o.Summary.Counters
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers("PLAYS", "TASKS", "OK", "CHANGED", "FAILED", "UNREACHABLE").
		Row(
			strconv.Itoa(c.Plays), strconv.Itoa(c.Tasks), strconv.Itoa(c.OK),
			strconv.Itoa(c.Changed), strconv.Itoa(c.Failed), strconv.Itoa(c.Unreachable),
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	b.WriteString(t.String())
	b.WriteString("\n\n")

	for _, f := range [][2]string{
		{"Environment:", o.Run.Environment},
		{"Log:", o.Artifacts.LogFile},
		{"JSON:", o.Artifacts.JSONFile},
		{"Report:", o.Artifacts.ReportFile},
		{"Summary:", o.Artifacts.SummaryFile},
	} {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", f[0])), f[1])
	}
	return strings.TrimRight(b.String(), "\n")
}
