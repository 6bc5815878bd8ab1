package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/straja-ai/rcc/internal/bench"
	"github.com/straja-ai/rcc/internal/config"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorPass    = lipgloss.Color("#10B981")
	colorFail    = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(22)

	passStyle = lipgloss.NewStyle().
			Foreground(colorPass).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(colorFail).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func reportRows(r bench.Report) []string {
	return []string{
		row("p50", fmt.Sprintf("%.3f ms", r.P50Ms)),
		row("p95", fmt.Sprintf("%.3f ms", r.P95Ms)),
		row("p99", fmt.Sprintf("%.3f ms", r.P99Ms)),
		row("avg", fmt.Sprintf("%.3f ms", r.AvgMs)),
		row("min / max", fmt.Sprintf("%.3f / %.3f ms", r.MinMs, r.MaxMs)),
		row("throughput", fmt.Sprintf("%.0f ops/s", r.ThroughputOpsS)),
		row("heap", fmt.Sprintf("%.2f MB", r.MemHeapMB)),
		row("timestamp", r.Timestamp),
	}
}

func renderReport(r bench.Report, path string) string {
	lines := append([]string{titleStyle.Render("rcc bench")}, reportRows(r)...)
	lines = append(lines, row("written", path))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderComparison(c bench.Comparison, th config.BenchThresholds) string {
	lines := append([]string{titleStyle.Render("rcc bench vs baseline")}, reportRows(c.Current)...)

	switch {
	case c.NewBaseline:
		lines = append(lines, row("baseline", "created from this run"))
	default:
		lines = append(lines,
			row("p95 change", fmt.Sprintf("%+.2f%% (max %g%%)", c.P95DegradationPct, th.P95MaxDegradationPct)),
			row("throughput drop", fmt.Sprintf("%+.2f%% (max %g%%)", c.ThroughputDegradationPct, th.ThroughputMinDegradationPct)),
		)
	}

	if c.Pass {
		lines = append(lines, passStyle.Render("PASS"))
	} else {
		lines = append(lines, failStyle.Render("FAIL: "+c.Failure))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderHistory(entries []bench.Entry) string {
	lines := []string{titleStyle.Render("rcc bench history")}
	if len(entries) == 0 {
		lines = append(lines, labelStyle.Render("no runs recorded"))
	}
	for _, e := range entries {
		verdict := passStyle.Render("PASS")
		if !e.Pass {
			verdict = failStyle.Render("FAIL")
		}
		line := fmt.Sprintf("%-7s p95 %.3f ms  %.0f ops/s  %s  %s",
			e.Kind, e.Report.P95Ms, e.Report.ThroughputOpsS, verdict, e.ID)
		lines = append(lines, row(e.CreatedAt.UTC().Format(time.RFC3339), line))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
