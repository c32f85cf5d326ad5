package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"phi/internal/api"
	"phi/internal/chat"
	"phi/internal/voice"
)

// isTTY checks if the current environment has a terminal available.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func newChatCmd(app *App) *cobra.Command {
	var transcriber string
	cmd := &cobra.Command{
		Use:   "chat <agent-id>",
		Short: "Chat with an agent and watch its tasks run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTTY() {
				return fmt.Errorf("chat requires an interactive terminal")
			}

			agent, err := app.Client.GetAgent(cmd.Context(), args[0])
			if err != nil {
				if apiErr, ok := err.(*api.Error); ok && apiErr.StatusCode == 404 {
					fmt.Println(errorText("Agent not found: " + args[0]))
					return nil
				}
				return err
			}

			events := make(chan tea.Msg, 32)
			bridge := voice.NewBridge(
				voice.NewCommandRecognizer(transcriber),
				voice.NewCommandSynthesizer(),
				func(text string) { events <- transcriptMsg{text: text} },
			)
			session := chat.NewSession(agent.Name,
				chat.WithSpeaker(bridge),
				chat.WithVoiceEnabled(app.Config.VoiceEnabled),
			)
			if !app.Config.VoiceEnabled {
				bridge.SetMuted(true)
			}

			model := newChatModel(app, agent, session, bridge, events)
			program := tea.NewProgram(model, tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
	cmd.Flags().StringVar(&transcriber, "transcriber", os.Getenv("PHI_TRANSCRIBER_CMD"),
		"command that records one utterance and prints the transcript")
	return cmd
}
