package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phi/internal/api"
	"phi/internal/config"
	"phi/internal/logging"
)

// App bundles the per-process dependencies shared by every command: one
// config, one session, one API client.
type App struct {
	Config  config.Config
	Session *config.Session
	Client  *api.Client
	Log     *logging.Logger
}

func buildApp() (*App, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return nil, err
	}
	session, err := config.OpenSession(dir)
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.CoreURL, cfg.OrchestratorURL, session, cfg.RequestTimeout)
	log := logging.ForComponent("cli")
	if cfg.Verbose {
		logging.Get().SetLevel(logging.DEBUG)
	}
	return &App{Config: cfg, Session: session, Client: client, Log: log}, nil
}

func main() {
	app, err := buildApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := logging.Get().Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Close log: %v\n", err)
		}
	}()

	root := newRootCmd(app)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "phi",
		Short:         "Phi Agents terminal client",
		Long:          "phi is the terminal client for the Phi Agents platform: manage organizations,\nconfigure virtual-employee agents, run tasks from a chat interface, and inspect\ntask execution as an admin.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newAuthCmds(app)...)
	root.AddCommand(newCatalogCmds(app)...)
	root.AddCommand(
		newOrgsCmd(app),
		newAgentsCmd(app),
		newDocumentsCmd(app),
		newTasksCmd(app),
		newChatCmd(app),
		newAdminCmd(app),
	)
	return root
}
