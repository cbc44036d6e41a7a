package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tagscout/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				if errors.Is(err, api.ErrDaemonUnavailable) && !asJSON {
					stdout := cmd.OutOrStdout()
					colorize := shouldColorize(stdout)
					for _, line := range renderSectionHeader("Daemon", colorize) {
						fmt.Fprintln(stdout, line)
					}
					fmt.Fprintln(stdout, renderStatusLine("Daemon", statusError, "not reachable at "+ctx.daemonAddress(), colorize))
					return nil
				}
				return wrapDaemonError(err, ctx.daemonAddress())
			}

			if asJSON {
				return writeJSON(cmd, status)
			}
			printStatus(cmd, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON")
	return cmd
}

func printStatus(cmd *cobra.Command, status api.DaemonStatus) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if status.Running {
		detail := "pid " + strconv.Itoa(status.PID)
		if status.Uptime != "" {
			detail += ", up " + status.Uptime
		}
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Daemon", statusWarn, "stopped", colorize))
	}
	if status.GatewayEnabled {
		fmt.Fprintln(stdout, renderStatusLine("Chat gateway", statusOK, "enabled", colorize))
	} else {
		fmt.Fprintln(stdout, renderStatusLine("Chat gateway", statusInfo, "disabled", colorize))
	}
	overrideKind := statusInfo
	if status.OverridesPath != "" && status.Overrides == 0 {
		overrideKind = statusWarn
	}
	fmt.Fprintln(stdout, renderStatusLine("Title overrides", overrideKind, strconv.Itoa(status.Overrides)+" name(s)", colorize))
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, renderKeyValues([][2]string{
		{"Session", status.SessionID},
		{"Started", status.StartedAt},
		{"Stats database", status.StatsDBPath},
		{"Lock file", status.LockFilePath},
		{"Overrides file", status.OverridesPath},
		{"Providers", strings.Join(status.Providers, ", ")},
	}))

	if len(status.Rankings) == 0 {
		return
	}
	rows := make([][]string, 0, len(status.Rankings))
	for _, ranking := range status.Rankings {
		rows = append(rows, []string{
			ranking.Medium,
			strings.Join(ranking.Primary, ", "),
			strings.Join(ranking.Auxiliary, ", "),
		})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Medium", "Primary", "Auxiliary"}, rows, nil))
}
