package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phi/internal/api"
)

func newAgentsCmd(app *App) *cobra.Command {
	agents := &cobra.Command{
		Use:   "agents",
		Short: "Manage agents",
	}

	var (
		orgID      string
		industryID string
		roleID     string
		toolIDs    []string
	)
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an agent in an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := app.Client.CreateAgent(cmd.Context(), orgID, api.CreateAgentRequest{
				IndustryID:     industryID,
				RoleTemplateID: roleID,
				Name:           args[0],
				ToolIDs:        toolIDs,
			})
			if err != nil {
				return err
			}
			fmt.Println(successText(fmt.Sprintf("Created agent %s (%s)", agent.Name, agent.ID)))
			return nil
		},
	}
	create.Flags().StringVar(&orgID, "org", "", "organization id (required)")
	create.Flags().StringVar(&industryID, "industry", "", "industry id (required)")
	create.Flags().StringVar(&roleID, "role-template", "", "role template id (required)")
	create.Flags().StringSliceVar(&toolIDs, "tool", nil, "tool id to attach (repeatable)")
	_ = create.MarkFlagRequired("org")
	_ = create.MarkFlagRequired("industry")
	_ = create.MarkFlagRequired("role-template")

	var listOrgID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List agents in an organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Client.ListAgents(cmd.Context(), listOrgID)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println(gray("No agents yet. Create one with: phi agents create"))
				return nil
			}
			for _, agent := range items {
				fmt.Printf("%s  %s  %s\n", agent.ID, bold(agent.Name), gray(agent.Status))
			}
			return nil
		},
	}
	list.Flags().StringVar(&listOrgID, "org", "", "organization id (required)")
	_ = list.MarkFlagRequired("org")

	get := &cobra.Command{
		Use:   "get <agent-id>",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := app.Client.GetAgent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			pairs := [][2]string{
				{"ID", agent.ID},
				{"Name", agent.Name},
				{"Org", agent.OrgID},
				{"Status", agent.Status},
			}
			fmt.Print(keyValueLines(pairs))
			if agent.SystemPrompt != "" {
				fmt.Printf("\n%s\n%s\n", bold("Profile:"), agent.SystemPrompt)
			}
			if len(agent.AgentTools) > 0 {
				fmt.Printf("\n%s\n", bold("Tools:"))
				for _, at := range agent.AgentTools {
					fmt.Printf("  %s\n", at.ToolID)
				}
			}
			return nil
		},
	}

	generateProfile := &cobra.Command{
		Use:   "generate-profile <agent-id>",
		Short: "Generate the agent's role profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := app.Client.GenerateProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(successText("Profile generated"))
			if agent.SystemPrompt != "" {
				fmt.Println(agent.SystemPrompt)
			}
			return nil
		},
	}

	var (
		format string
		output string
	)
	download := &cobra.Command{
		Use:   "config <agent-id>",
		Short: "Download the agent's deployable config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != string(api.ConfigYAML) && format != string(api.ConfigJSON) {
				return fmt.Errorf("format must be yaml or json, got %q", format)
			}
			blob, err := app.Client.DownloadConfig(cmd.Context(), args[0], api.ConfigFormat(format))
			if err != nil {
				return err
			}
			dest := output
			if dest == "" {
				dest = fmt.Sprintf("agent-%s-config.%s", args[0], format)
			}
			if dest == "-" {
				_, err := os.Stdout.Write(blob)
				return err
			}
			if err := os.WriteFile(dest, blob, 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Println(successText("Config written to " + dest))
			return nil
		},
	}
	download.Flags().StringVar(&format, "format", "yaml", "config format: yaml or json")
	download.Flags().StringVarP(&output, "output", "o", "", "destination file (- for stdout)")

	agents.AddCommand(create, list, get, generateProfile, download)
	return agents
}
