// Package cli renders planner state for the terminal.
package cli

import (
	"fmt"
	"strings"

	"github.com/PontusDahlberg/Semesterappen/internal/budget"
	"github.com/PontusDahlberg/Semesterappen/internal/calendar"
	"github.com/PontusDahlberg/Semesterappen/internal/planner"
	"github.com/charmbracelet/lipgloss"
)

// Theme colors
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	goodStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	badStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)

// Table is a bordered text table
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render(mid))
			}
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteString("\n")
	}
	line := func(cells []string, style lipgloss.Style) {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			b.WriteString(style.Render(" " + cell + pad + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle)
	}
	rule("╰", "┴", "╯")

	return b.String()
}

// MonthTable builds the day table of a month view. Weeks are separated by a
// rule line.
func MonthTable(view planner.MonthView) Table {
	t := Table{
		Title:   fmt.Sprintf("%s %d (%s)", monthName(view.Month), view.Year, view.Scenario),
		Headers: []string{"Date", "Week", "Day", "Type", "Mark", "Note"},
	}
	prevWeek := 0
	for _, d := range view.Days {
		if prevWeek != 0 && d.Week != prevWeek {
			t.Rows = append(t.Rows, []string{"---"})
		}
		prevWeek = d.Week
		t.Rows = append(t.Rows, []string{
			d.Date,
			fmt.Sprintf("%d", d.Week),
			shortWeekday(d.Weekday),
			kindLabel(d),
			markLabel(d.Status),
			d.Note,
		})
	}
	return t
}

// RenderMonth renders a month view with its summary card
func RenderMonth(view planner.MonthView) string {
	return RenderTable(MonthTable(view)) + RenderSummary(view.Summary)
}

// RenderSummary renders the budget card
func RenderSummary(s budget.Summary) string {
	remaining := goodStyle
	switch {
	case s.Remaining < 0:
		remaining = badStyle
	case s.Remaining < s.BudgetDays*0.1:
		remaining = warnStyle
	}

	rows := []string{
		fmt.Sprintf("%s %s", mutedStyle.Render("Budget:   "), valueStyle.Render(budget.FormatDays(s.BudgetDays)+" days")),
		fmt.Sprintf("%s %s", mutedStyle.Render("Consumed: "), valueStyle.Render(budget.FormatDays(s.Consumed)+" days")),
		fmt.Sprintf("%s %s", mutedStyle.Render("Remaining:"), remaining.Render(budget.FormatDays(s.Remaining)+" days")),
		fmt.Sprintf("%s %s", mutedStyle.Render("Usage:    "), RenderProgressBar(s.Consumed, s.BudgetDays, 30)),
	}
	return cardStyle.Render(strings.Join(rows, "\n")) + "\n"
}

// RenderOverview renders the scenario list
func RenderOverview(o planner.Overview) string {
	t := Table{
		Title:   "Scenarios",
		Headers: []string{"", "Name", "Consumed", "Remaining"},
	}
	for _, s := range o.Scenarios {
		marker := ""
		if s.Current {
			marker = "*"
		}
		t.Rows = append(t.Rows, []string{
			marker,
			s.Name,
			budget.FormatDays(s.Consumed),
			budget.FormatDays(s.Remaining),
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(t))
	if o.Degraded {
		b.WriteString(warnStyle.Render("Storage unavailable: working locally, changes are not persisted"))
		b.WriteString("\n")
	}
	if o.Dirty {
		b.WriteString(mutedStyle.Render("Unsaved changes"))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderProgressBar renders a simple text progress bar.
func RenderProgressBar(current, total float64, width int) string {
	if total <= 0 {
		return ""
	}

	pct := min(max(current/total, 0), 1)
	filled := min(int(pct*float64(width)), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s",
		mutedStyle.Render(bar),
		budget.FormatDays(current),
		budget.FormatDays(total),
	)
}

func kindLabel(d planner.DayView) string {
	switch d.Kind {
	case calendar.KindRestrictedHoliday:
		if d.Label != "" {
			return "Holiday: " + d.Label
		}
		return "Weekend"
	case calendar.KindRestrictedWork:
		return "Locked"
	default:
		return ""
	}
}

func markLabel(status string) string {
	if status == calendar.StatusNone.String() {
		return ""
	}
	return status
}

func shortWeekday(day string) string {
	if len(day) > 3 {
		return day[:3]
	}
	return day
}

func monthName(month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("Month %d", month)
	}
	return [...]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	}[month-1]
}
