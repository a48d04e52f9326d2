package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hidrotec-mx/intake-cli/internal/model"
	"github.com/hidrotec-mx/intake-cli/internal/proposal"
	"github.com/hidrotec-mx/intake-cli/internal/session"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interactive intake session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sessionID := chatSessionID
		if sessionID == "" {
			sessionID = session.NewSessionID()
		}

		bot := color.New(color.FgCyan)
		hint := color.New(color.FgYellow)
		hint.Printf("sesión %s — escribe un mensaje (\"salir\" para terminar)\n\n", sessionID)

		proposalShown := false
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "salir" || line == "exit" {
				break
			}
			if line == "" {
				continue
			}

			var out model.Outbound
			err := env.Manager.WithSession(ctx, sessionID, func(st *model.State) error {
				var err error
				out, err = env.Controller.HandleMessage(ctx, st, line)
				return err
			})
			if err != nil {
				return err
			}

			bot.Println("\n" + out.Reply + "\n")

			if out.Completed && !proposalShown {
				proposalShown = true
				if err := printProposal(ctx, env, sessionID); err != nil {
					return err
				}
			}
		}
		return scanner.Err()
	},
}

func printProposal(ctx context.Context, env *intakeEnv, sessionID string) error {
	st, err := env.Manager.Peek(ctx, sessionID)
	if err != nil || st == nil {
		return err
	}
	doc, err := proposal.Build(env.Catalog, st)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Println(doc.Markdown())
	return nil
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume an existing session id")
	rootCmd.AddCommand(chatCmd)
}
