package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOrgsCmd(app *App) *cobra.Command {
	orgs := &cobra.Command{
		Use:   "orgs",
		Short: "Manage organizations",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := app.Client.CreateOrg(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(successText(fmt.Sprintf("Created organization %s (%s)", org.Name, org.ID)))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orgs, err := app.Client.ListOrgs(cmd.Context())
			if err != nil {
				return err
			}
			if len(orgs) == 0 {
				fmt.Println(gray("No organizations yet. Create one with: phi orgs create <name>"))
				return nil
			}
			for _, org := range orgs {
				fmt.Printf("%s  %s\n", org.ID, bold(org.Name))
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <org-id>",
		Short: "Show one organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := app.Client.GetOrg(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Print(keyValueLines([][2]string{
				{"ID", org.ID},
				{"Name", org.Name},
				{"Owner", org.OwnerUserID},
				{"Created", org.CreatedAt.Local().Format("2006-01-02 15:04")},
			}))
			return nil
		},
	}

	orgs.AddCommand(create, list, get)
	return orgs
}

func newCatalogCmds(app *App) []*cobra.Command {
	industries := &cobra.Command{
		Use:   "industries",
		Short: "List available industries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Client.ListIndustries(cmd.Context())
			if err != nil {
				return err
			}
			for _, ind := range items {
				fmt.Printf("%s  %s  %s\n", ind.ID, bold(ind.Key), ind.Name)
			}
			return nil
		},
	}

	var industryKey string
	roleTemplates := &cobra.Command{
		Use:   "role-templates",
		Short: "List role templates, optionally for one industry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Client.ListRoleTemplates(cmd.Context(), industryKey)
			if err != nil {
				return err
			}
			for _, rt := range items {
				fmt.Printf("%s  %s  %s\n", rt.ID, bold(rt.Key), rt.Name)
				if rt.Description != "" {
					fmt.Printf("    %s\n", gray(rt.Description))
				}
			}
			return nil
		},
	}
	roleTemplates.Flags().StringVar(&industryKey, "industry", "", "filter by industry key")

	tools := &cobra.Command{
		Use:   "tools",
		Short: "List tools that can be attached to agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.Client.ListTools(cmd.Context())
			if err != nil {
				return err
			}
			for _, tool := range items {
				fmt.Printf("%s  %s  %s\n", tool.ID, bold(tool.Key), tool.Name)
			}
			return nil
		},
	}

	return []*cobra.Command{industries, roleTemplates, tools}
}
