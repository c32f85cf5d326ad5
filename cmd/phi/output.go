package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"phi/internal/task"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func errorText(msg string) string {
	return red("✗ " + msg)
}

func successText(msg string) string {
	return green("✓ " + msg)
}

// statusBadge renders a task status with its conventional color.
func statusBadge(status task.Status) string {
	switch status {
	case task.StatusSuccess:
		return green(string(status))
	case task.StatusFailed:
		return red(string(status))
	case task.StatusRunning:
		return cyan(string(status))
	case task.StatusPending:
		return yellow(string(status))
	default:
		return string(status)
	}
}

// etaText renders remaining time as whole minutes, matching the execution
// view ("Estimated time remaining: N minutes").
func etaText(etaSeconds int) string {
	minutes := (etaSeconds + 59) / 60
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("Estimated time remaining: %d %s", minutes, unit)
}

func formatTimestamp(t time.Time) string {
	return t.Local().Format("15:04:05")
}

// keyValueLines renders aligned "key: value" pairs for detail output.
func keyValueLines(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s%s  %s\n", bold(p[0]+":"), strings.Repeat(" ", width-len(p[0])), p[1])
	}
	return b.String()
}
