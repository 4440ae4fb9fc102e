package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bft-labs/bulkload/internal/domain"
)

const boxWidth = 56

type line struct {
	label string
	value string
}

func summaryLines(s domain.Statistics) []line {
	lines := []line{
		{"Operation", s.Operation},
		{"Run ID", s.RunID},
		{"Status", string(s.Status)},
		{"Total items", fmt.Sprint(s.TotalItems)},
	}
	if s.ResumedFrom > 0 {
		lines = append(lines, line{"Resumed from", fmt.Sprint(s.ResumedFrom)})
	}
	lines = append(lines,
		line{"Processed items", fmt.Sprint(s.ProcessedItems)},
		line{"Successful batches", fmt.Sprint(s.SuccessfulBatches)},
		line{"Failed batches", fmt.Sprint(s.FailedBatches)},
		line{"Retried batches", fmt.Sprint(s.RetriedBatches)},
	)
	if s.RejectedItems > 0 {
		lines = append(lines, line{"Rejected items", fmt.Sprint(s.RejectedItems)})
	}
	lines = append(lines,
		line{"Duration", s.Elapsed().Round(time.Millisecond).String()},
		line{"Throughput", fmt.Sprintf("%.1f items/s", s.Throughput())},
	)
	return lines
}

func renderPlain(w io.Writer, s domain.Statistics) error {
	var b strings.Builder
	b.WriteString("=== Batch run statistics ===\n")
	for _, l := range summaryLines(s) {
		fmt.Fprintf(&b, "%-20s %s\n", l.label+":", l.value)
	}
	if hint := ResumeHint(s); hint != "" {
		b.WriteString("\n")
		b.WriteString(hint)
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func statusColor(status domain.RunStatus) lipgloss.Color {
	switch status {
	case domain.StatusCompleted:
		return lipgloss.Color("42")
	case domain.StatusPaused:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("196")
	}
}

func renderStyled(w io.Writer, s domain.Statistics) error {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Width(20)

	borderStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(boxWidth)

	var b strings.Builder
	b.WriteString(titleStyle.Render("BATCH RUN STATISTICS"))
	b.WriteString("\n\n")
	for _, l := range summaryLines(s) {
		value := l.value
		if l.label == "Status" {
			value = lipgloss.NewStyle().Bold(true).Foreground(statusColor(s.Status)).Render(value)
		}
		b.WriteString(labelStyle.Render(l.label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	if hint := ResumeHint(s); hint != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(statusColor(s.Status)).Render(hint))
	}

	_, err := fmt.Fprintln(w, borderStyle.Render(strings.TrimRight(b.String(), "\n")))
	return err
}
