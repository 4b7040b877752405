package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"subforge/internal/render"
	"subforge/internal/validation"
)

func resolveFormat(flag, fallback string) (render.Format, error) {
	value := strings.TrimSpace(flag)
	if value == "" {
		value = fallback
	}
	return render.ParseFormat(value)
}

func fileSummary(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(info.Size())))
}

func validationSummary(report *validation.Report) string {
	if report == nil {
		return "off"
	}
	outcomes := make([]string, 0, len(report.Outcomes))
	for outcome, count := range report.Outcomes {
		outcomes = append(outcomes, fmt.Sprintf("%s=%d", outcome, count))
	}
	sort.Strings(outcomes)
	mode := "sequential"
	if report.Parallel {
		mode = "parallel"
	}
	return fmt.Sprintf("%d segments, %d changed, %s (%s)", report.Total, report.Changed, strings.Join(outcomes, " "), mode)
}

func formatConfidence(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatElapsed(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

func summaryTable(rows [][]string) string {
	filtered := rows[:0]
	for _, row := range rows {
		if len(row) == 2 && row[1] != "" {
			filtered = append(filtered, row)
		}
	}
	return renderTable([]string{"Field", "Value"}, filtered, nil)
}
