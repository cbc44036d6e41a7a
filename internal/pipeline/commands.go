package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"tagscout/internal/logging"
	"tagscout/internal/stats"
	"tagscout/internal/tags"
)

// HelpText is the answer to the help command.
const HelpText = `Wrap a title in brackets to look it up:
  {title}   anime
  <title>   manga
  ]title[   light novel
Double the brackets ({{title}}, <<title>>, ]]title[[) for the expanded answer with a description.
Expanded answers only apply when the message contains a single tag.

Commands:
  {!stats}            your request statistics (mention someone to see theirs)
  {!sstats}           statistics for this server
  {!toggle expanded}  turn expanded answers off or back on for this server`

func (p *Processor) runCommand(ctx context.Context, msg Message, mentions []string, cmd tags.Command) CommandResponse {
	commandsTotal.WithLabelValues(string(cmd.Name)).Inc()
	logger := logging.WithContext(ctx, p.logger).With(logging.String("command", string(cmd.Name)))
	resp := CommandResponse{Command: cmd.Name}

	if cmd.Name == tags.CommandHelp {
		resp.Text = HelpText
		return resp
	}
	if p.store == nil {
		resp.Failed = true
		resp.Text = "Statistics are not available right now."
		return resp
	}

	switch cmd.Name {
	case tags.CommandStats:
		subject := msg.AuthorID
		if len(mentions) > 0 {
			subject = mentions[0]
		}
		if subject == "" {
			resp.Failed = true
			resp.Text = "Mention someone to see their statistics."
			return resp
		}
		summary, err := p.store.UserStats(ctx, subject)
		if err != nil {
			return commandFailed(resp, logger, err)
		}
		resp.Summary = &summary
		resp.Text = FormatUserSummary(summary)
	case tags.CommandServerStats:
		if msg.ServerID == "" {
			resp.Failed = true
			resp.Text = "Server statistics are only available inside a server."
			return resp
		}
		summary, err := p.store.ServerStats(ctx, msg.ServerID)
		if err != nil {
			return commandFailed(resp, logger, err)
		}
		resp.Summary = &summary
		resp.Text = FormatServerSummary(summary)
	case tags.CommandToggleExpanded:
		if msg.ServerID == "" {
			resp.Failed = true
			resp.Text = "Expanded answers can only be toggled inside a server."
			return resp
		}
		expanded, err := p.store.ToggleExpanded(ctx, msg.ServerID)
		if err != nil {
			return commandFailed(resp, logger, err)
		}
		resp.Expanded = &expanded
		if expanded {
			resp.Text = "Expanded answers are now enabled on this server."
		} else {
			resp.Text = "Expanded answers are now disabled on this server."
		}
		logger.Info("server expanded setting changed",
			logging.String("server_id", msg.ServerID),
			logging.Bool("expanded", expanded),
		)
	default:
		resp.Failed = true
		resp.Text = "Unknown command."
	}
	return resp
}

func commandFailed(resp CommandResponse, logger *slog.Logger, err error) CommandResponse {
	logging.WarnWithContext(logger, "command failed", "command_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the stats database"),
		logging.String(logging.FieldImpact, "command answered with an error"),
	)
	resp.Failed = true
	resp.Text = "Something went wrong reading statistics. Try again later."
	return resp
}

// FormatUserSummary renders a requester's statistics.
func FormatUserSummary(s stats.Summary) string {
	if s.Requests == 0 {
		return fmt.Sprintf("No requests recorded for %s yet.", s.Subject)
	}
	return formatSummary("Statistics for "+s.Subject, "overall", s)
}

// FormatServerSummary renders a server's statistics.
func FormatServerSummary(s stats.Summary) string {
	if s.Requests == 0 {
		return "No requests recorded for this server yet."
	}
	return formatSummary("Statistics for this server", "among servers", s)
}

func formatSummary(heading, scope string, s stats.Summary) string {
	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d requests (%s%% of all requests, #%d %s)\n",
		s.Requests, strconv.FormatFloat(s.Share(), 'f', -1, 64), s.Rank, scope)
	fmt.Fprintf(&b, "%d unique titles\n", s.UniqueTitles)
	if len(s.Top) > 0 {
		b.WriteString("Most requested:\n")
		for i, top := range s.Top {
			fmt.Fprintf(&b, "%d. %s (%s - %d requests)\n", i+1, top.Title, top.Medium.Label(), top.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
