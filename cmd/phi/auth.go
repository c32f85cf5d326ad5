package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAuthCmds(app *App) []*cobra.Command {
	var name string
	signup := &cobra.Command{
		Use:   "signup <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			token, err := app.Client.Signup(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			if err := app.Session.Save(token.AccessToken, email); err != nil {
				return err
			}
			fmt.Println(successText("Account created, you are now logged in as " + email))
			return nil
		},
	}
	signup.Flags().StringVar(&name, "name", "", "display name")

	login := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and persist the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			token, err := app.Client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.Session.Save(token.AccessToken, email); err != nil {
				return err
			}
			fmt.Println(successText("Logged in as " + email))
			return nil
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Clear(); err != nil {
				return err
			}
			fmt.Println(successText("Logged out"))
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.Client.Me(cmd.Context())
			if err != nil {
				return err
			}
			pairs := [][2]string{
				{"ID", user.ID},
				{"Email", user.Email},
			}
			if user.Name != "" {
				pairs = append(pairs, [2]string{"Name", user.Name})
			}
			fmt.Print(keyValueLines(pairs))
			for _, m := range user.Memberships {
				fmt.Printf("  %s %s (%s)\n", gray("org"), m.OrgID, m.Role)
			}
			return nil
		},
	}

	return []*cobra.Command{signup, login, logout, whoami}
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read for piped input.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		data, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(data), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
