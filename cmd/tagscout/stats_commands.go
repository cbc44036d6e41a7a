package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tagscout/internal/api"
	"tagscout/internal/pipeline"
	"tagscout/internal/stats"
)

type statsKind string

const (
	statsUser   statsKind = "user"
	statsServer statsKind = "server"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show request statistics",
	}
	statsCmd.AddCommand(newStatsSubcommand(ctx, statsUser, "user <id>", "Show the statistics of one requester"))
	statsCmd.AddCommand(newStatsSubcommand(ctx, statsServer, "server <id>", "Show the statistics of one server"))
	return statsCmd
}

func newStatsSubcommand(ctx *commandContext, kind statsKind, use, short string) *cobra.Command {
	var asJSON bool
	var local bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("id is required")
			}

			var resp api.StatsResponse
			var err error
			if local {
				resp, err = ctx.localStats(cmd.Context(), kind, id)
			} else {
				resp, err = ctx.remoteStats(cmd.Context(), kind, id)
				if errors.Is(err, api.ErrDaemonUnavailable) {
					fmt.Fprintln(cmd.ErrOrStderr(), "daemon not reachable; reading the statistics database directly")
					resp, err = ctx.localStats(cmd.Context(), kind, id)
				}
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, resp)
			}
			printSummary(cmd, kind, resp.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statistics as JSON")
	cmd.Flags().BoolVar(&local, "local", false, "Read the statistics database without contacting the daemon")
	return cmd
}

func (c *commandContext) remoteStats(ctx context.Context, kind statsKind, id string) (api.StatsResponse, error) {
	client, err := c.apiClient()
	if err != nil {
		return api.StatsResponse{}, err
	}
	if kind == statsServer {
		return client.ServerStats(ctx, id)
	}
	return client.UserStats(ctx, id)
}

func (c *commandContext) localStats(ctx context.Context, kind statsKind, id string) (api.StatsResponse, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return api.StatsResponse{}, err
	}
	store, err := stats.Open(cfg)
	if err != nil {
		return api.StatsResponse{}, fmt.Errorf("open stats store: %w", err)
	}
	defer store.Close()

	var summary stats.Summary
	var text string
	if kind == statsServer {
		summary, err = store.ServerStats(ctx, id)
		text = pipeline.FormatServerSummary(summary)
	} else {
		summary, err = store.UserStats(ctx, id)
		text = pipeline.FormatUserSummary(summary)
	}
	if err != nil {
		return api.StatsResponse{}, err
	}
	return api.StatsResponse{Kind: string(kind), Summary: summary, Share: summary.Share(), Text: text}, nil
}

func printSummary(cmd *cobra.Command, kind statsKind, summary stats.Summary) {
	out := cmd.OutOrStdout()
	if summary.Requests == 0 {
		fmt.Fprintf(out, "No requests recorded for %s %s\n", kind, summary.Subject)
		return
	}
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{strings.ToUpper(string(kind[:1])) + string(kind[1:]), summary.Subject},
		{"Requests", strconv.Itoa(summary.Requests)},
		{"Share", strconv.FormatFloat(summary.Share(), 'f', -1, 64) + "%"},
		{"Rank", "#" + strconv.Itoa(summary.Rank)},
		{"Unique titles", strconv.Itoa(summary.UniqueTitles)},
		{"All requests", strconv.Itoa(summary.GlobalRequests)},
	}))
	if len(summary.Top) == 0 {
		return
	}
	rows := make([][]string, 0, len(summary.Top))
	for idx, top := range summary.Top {
		rows = append(rows, []string{strconv.Itoa(idx + 1), top.Title, top.Medium.Label(), strconv.Itoa(top.Count)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Medium", "Requests"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))
}
