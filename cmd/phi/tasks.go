package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"phi/internal/chat"
	"phi/internal/task"
)

func newTasksCmd(app *App) *cobra.Command {
	tasks := &cobra.Command{
		Use:   "tasks",
		Short: "Run and inspect agent tasks",
	}

	var (
		taskType string
		follow   bool
	)
	run := &cobra.Command{
		Use:   "run <agent-id>",
		Short: "Start a task on an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.Client.RunTask(cmd.Context(), args[0], taskType, nil)
			if err != nil {
				return err
			}
			fmt.Println(successText("Task started: " + snap.ID))
			if !follow {
				return nil
			}
			return followTask(cmd.Context(), app, snap.ID)
		},
	}
	run.Flags().StringVar(&taskType, "type", chat.TaskTypeDailyWarehouseReport, "task type")
	run.Flags().BoolVar(&follow, "follow", true, "poll until the task settles")

	var statusFollow bool
	status := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show a task's latest snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if statusFollow {
				return followTask(cmd.Context(), app, args[0])
			}
			snap, err := app.Client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTaskSnapshot(snap)
			return nil
		},
	}
	status.Flags().BoolVar(&statusFollow, "follow", false, "poll until the task settles")

	tasks.AddCommand(run, status)
	return tasks
}

// followTask polls the task through the projector and prints progress lines
// until a terminal snapshot arrives or the user interrupts.
func followTask(parent context.Context, app *App, taskID string) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	updates := make(chan task.Update, 16)
	projector := task.NewProjector(app.Client, func(u task.Update) {
		select {
		case updates <- u:
		case <-ctx.Done():
		}
	}, task.WithInterval(app.Config.PollInterval))
	projector.Bind(ctx, taskID)
	defer projector.Unbind()

	lastLine := ""
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		case u := <-updates:
			if u.Unknown {
				fmt.Println(yellow("status unknown: task fetches keep failing, still retrying"))
				continue
			}
			snap := u.Snapshot
			if snap == nil {
				continue
			}
			if snap.Status.Terminal() {
				fmt.Println()
				printTaskSnapshot(snap)
				if snap.Status == task.StatusFailed {
					return fmt.Errorf("task %s failed", snap.ID)
				}
				return nil
			}
			line := statusBadge(snap.Status)
			if snap.ShowProgress() {
				line += fmt.Sprintf("  %d%%", *snap.Progress)
			}
			if snap.CurrentStep != "" {
				line += "  " + snap.CurrentStep
			}
			if line != lastLine {
				fmt.Println(line)
				lastLine = line
			}
		}
	}
}

func printTaskSnapshot(snap *task.Snapshot) {
	pairs := [][2]string{
		{"Task", snap.ID},
		{"Type", snap.Type},
		{"Status", statusBadge(snap.Status)},
	}
	if snap.ShowProgress() {
		pairs = append(pairs, [2]string{"Progress", fmt.Sprintf("%d%%", *snap.Progress)})
		if snap.CurrentStep != "" {
			pairs = append(pairs, [2]string{"Step", snap.CurrentStep})
		}
		if snap.ETASeconds != nil && *snap.ETASeconds > 0 {
			pairs = append(pairs, [2]string{"ETA", etaText(*snap.ETASeconds)})
		}
	}
	if snap.Error != "" {
		pairs = append(pairs, [2]string{"Error", red(snap.Error)})
	}
	fmt.Print(keyValueLines(pairs))

	if snap.Status == task.StatusSuccess && snap.Output != nil {
		out := snap.Output
		switch {
		case out.FullReportMD != "":
			fmt.Println()
			fmt.Println(renderMarkdown(out.FullReportMD))
		case out.SummaryText != "":
			fmt.Println()
			fmt.Println(out.SummaryText)
		default:
			if raw := out.Raw(); raw != nil {
				encoded, err := json.MarshalIndent(raw, "", "  ")
				if err == nil {
					fmt.Println()
					fmt.Println(string(encoded))
				}
			}
		}
		if out.DashboardURL != "" {
			fmt.Println()
			fmt.Println(bold("Interactive dashboard: ") + cyan(out.DashboardURL))
		}
	}

	if events := snap.TimelineEvents(); len(events) > 0 {
		fmt.Println()
		fmt.Println(bold("Agent actions:"))
		for _, e := range events {
			fmt.Println("  " + describeEvent(e))
		}
	}
}

// describeEvent renders one timeline event the way the execution view does.
func describeEvent(e task.Event) string {
	when := gray(formatTimestamp(e.Timestamp))
	switch e.EventType {
	case "PROGRESS_UPDATE":
		step := e.Payload.CurrentStep()
		if step == "" {
			step = "Processing..."
		}
		return fmt.Sprintf("%s %s", when, step)
	case "TOOL_COMPLETED":
		name := e.Payload.ToolName()
		if name == "" {
			name = "Tool"
		}
		line := fmt.Sprintf("%s %s %s completed", when, green("✓"), name)
		if result := e.Payload.ResultText(); result != "" {
			line += gray(" — " + result)
		}
		return line
	case "TOOL_FAILED":
		name := e.Payload.ToolName()
		if name == "" {
			name = "Tool"
		}
		line := fmt.Sprintf("%s %s %s failed", when, red("✗"), name)
		if errText := e.Payload.ErrorText(); errText != "" {
			line += red(" — " + errText)
		}
		return line
	case "WORKFLOW_STARTED":
		return fmt.Sprintf("%s workflow started", when)
	case "WORKFLOW_COMPLETED":
		return fmt.Sprintf("%s workflow completed", when)
	default:
		return fmt.Sprintf("%s %s", when, e.EventType)
	}
}
