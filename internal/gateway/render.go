package gateway

import (
	"fmt"
	"strings"

	"tagscout/internal/pipeline"
	"tagscout/internal/synthesis"
)

// Render builds the plain-text body of a reply: command answers first, then
// one block per item in order.
func Render(reply pipeline.Reply) string {
	var blocks []string
	for _, cmd := range reply.Commands {
		if text := strings.TrimSpace(cmd.Text); text != "" {
			blocks = append(blocks, text)
		}
	}
	for _, item := range reply.Items {
		if item.Record == nil {
			blocks = append(blocks, fmt.Sprintf("No %s found for %q.", strings.ToLower(item.Request.Medium.Label()), item.Request.Query))
			continue
		}
		blocks = append(blocks, RenderRecord(item.Record))
	}
	return strings.Join(blocks, "\n\n")
}

// RenderRecord renders one record: title, links, info and, when expanded,
// description and request statistics.
func RenderRecord(record *synthesis.Record) string {
	var lines []string
	title := record.Title
	if record.NativeTitle != "" {
		title += " (" + record.NativeTitle + ")"
	}
	lines = append(lines, title)

	if len(record.Links) > 0 {
		links := make([]string, 0, len(record.Links))
		for _, link := range record.Links {
			links = append(links, link.Label+": "+link.URL)
		}
		lines = append(lines, strings.Join(links, " | "))
	}
	if len(record.Info) > 0 {
		info := make([]string, 0, len(record.Info))
		for _, field := range record.Info {
			info = append(info, field.Label+": "+field.Value)
		}
		lines = append(lines, strings.Join(info, " | "))
	}
	if record.Expanded {
		if record.Description != "" {
			lines = append(lines, "", record.Description)
		}
		if record.Stats != nil {
			lines = append(lines, "", record.Stats.String())
		}
	}
	return strings.Join(lines, "\n")
}
