package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tagscout/internal/pipeline"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var msg pipeline.Message
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "send <message...>",
		Short: "Submit a chat message to the daemon and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg.Body = strings.Join(args, " ")
			if strings.TrimSpace(msg.Body) == "" {
				return errors.New("message is empty")
			}
			if msg.ID == "" {
				msg.ID = uuid.NewString()
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.SendMessage(cmd.Context(), msg)
			if err != nil {
				return wrapDaemonError(err, ctx.daemonAddress())
			}

			if asJSON {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			switch {
			case resp.Reply.Duplicate:
				fmt.Fprintf(out, "Message %s was already answered\n", msg.ID)
			case strings.TrimSpace(resp.Text) == "":
				fmt.Fprintln(out, "No tags or commands found")
			default:
				fmt.Fprintln(out, resp.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&msg.ID, "id", "", "Message ID (random when empty)")
	cmd.Flags().StringVar(&msg.AuthorID, "author", "cli", "Author user ID")
	cmd.Flags().StringVar(&msg.ServerID, "server", "", "Server ID for statistics and settings")
	cmd.Flags().StringVar(&msg.ChannelID, "channel", "", "Channel ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full reply as JSON")
	return cmd
}
