package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tagscout/internal/tags"
)

func newExtractCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "extract [message]",
		Short:       "Show the tags and commands found in a message",
		Long:        "Show the tags and commands found in a message. Reads the message from stdin when no argument is given.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("message is empty")
			}

			extraction := tags.Extract(text)
			if asJSON {
				return writeJSON(cmd, extraction)
			}

			out := cmd.OutOrStdout()
			if len(extraction.Requests) == 0 && len(extraction.Commands) == 0 {
				fmt.Fprintln(out, "No tags or commands found")
				return nil
			}
			if len(extraction.Requests) > 0 {
				rows := make([][]string, 0, len(extraction.Requests))
				for idx, req := range extraction.Requests {
					rows = append(rows, []string{
						strconv.Itoa(idx + 1),
						req.Medium.Label(),
						req.Query,
						yesNo(req.Expanded),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Medium", "Query", "Expanded"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
			}
			for _, command := range extraction.Commands {
				fmt.Fprintf(out, "Command: !%s\n", command.Name)
			}
			if extraction.Malformed > 0 {
				fmt.Fprintf(out, "Dropped %d empty tag(s)\n", extraction.Malformed)
			}
			if extraction.Collided {
				fmt.Fprintln(out, "Expanded tags were shown normally because the message has several tags")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the extraction as JSON")
	return cmd
}
