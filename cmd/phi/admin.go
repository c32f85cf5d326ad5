package main

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"phi/internal/api"
	"phi/internal/config"
	"phi/internal/task"
)

func newAdminCmd(app *App) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Inspect task execution across organizations",
	}

	var (
		filter api.AdminTaskFilter
		plain  bool
	)
	list := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect tasks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTTY() && !plain {
				program := tea.NewProgram(newAdminModel(app, filter), tea.WithAltScreen())
				_, err := program.Run()
				return err
			}
			items, err := app.Client.AdminListTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println(gray("No tasks match the filter."))
				return nil
			}
			for _, snap := range items {
				line := fmt.Sprintf("%s  %-9s  %s  %s",
					snap.ID, statusBadge(snap.Status), snap.Type, gray("agent "+snap.AgentID))
				if snap.Error != "" {
					line += "  " + red(snap.Error)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	list.Flags().StringVar(&filter.OrgID, "org", "", "filter by organization id")
	list.Flags().StringVar(&filter.AgentID, "agent", "", "filter by agent id")
	list.Flags().StringVar(&filter.Status, "status", "", "filter by status (PENDING, RUNNING, SUCCESS, FAILED)")
	list.Flags().IntVar(&filter.Limit, "limit", config.DefaultAdminTaskLimit, "maximum number of tasks")
	list.Flags().BoolVar(&plain, "plain", false, "print a plain listing instead of the inspector")

	show := &cobra.Command{
		Use:   "task <task-id>",
		Short: "Show one task with its full event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.Client.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTaskSnapshot(snap)

			events, err := app.Client.AdminTaskEvents(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return nil
			}
			sort.SliceStable(events, func(i, j int) bool {
				return events[i].Timestamp.Before(events[j].Timestamp)
			})
			fmt.Println()
			fmt.Println(bold("Event log:"))
			for _, e := range events {
				fmt.Printf("  %s %s %s\n", gray(formatTimestamp(e.Timestamp)), e.EventType, payloadSummary(e.Payload))
			}
			return nil
		},
	}

	admin.AddCommand(list, show)
	return admin
}

// payloadSummary compacts an event payload into one gray annotation.
func payloadSummary(p task.Payload) string {
	switch {
	case p.ToolName() != "":
		return gray(p.ToolName())
	case p.CurrentStep() != "":
		return gray(p.CurrentStep())
	case p.ErrorText() != "":
		return red(p.ErrorText())
	}
	return ""
}
