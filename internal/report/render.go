// Package report renders the final comparison summary for the
// terminal. Rendering is presentation only; the verdict and exit code
// come from the session.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/goldcheck/internal/compare"
)

var (
	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))
	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF8787"))
	softStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F5D547"))
	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#54A0FF"))
	dimStyle = lipgloss.NewStyle().
			Faint(true)
)

// Summary renders the verdict banner, per-kind counts and the full
// violation list for one finished run.
func Summary(golden, test string, s *compare.Session) string {
	var b strings.Builder

	if s.Passed() {
		b.WriteString(passStyle.Render("PASS") + " products match\n")
	} else {
		b.WriteString(failStyle.Render("FAIL") + fmt.Sprintf(" %d violations\n", s.HardCount()))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("golden: %s", golden)) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("test:   %s", test)) + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("datasets compared: %d", s.DatasetsCompared())) + "\n")

	violations := s.Violations()
	if len(violations) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	for _, v := range violations {
		marker := failStyle.Render("✗")
		if !v.Hard() {
			marker = softStyle.Render("~")
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			marker,
			dimStyle.Render("["+string(v.Kind)+"]"),
			pathStyle.Render(v.Path),
			v.Message))
	}
	return b.String()
}
