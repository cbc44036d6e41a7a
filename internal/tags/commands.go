package tags

import (
	"regexp"
	"strings"
)

// CommandName identifies a recognized inline command.
type CommandName string

const (
	CommandHelp           CommandName = "help"
	CommandStats          CommandName = "stats"
	CommandServerStats    CommandName = "sstats"
	CommandToggleExpanded CommandName = "toggle expanded"
)

// Command is an inline `!command` found inside a single-delimiter span.
type Command struct {
	Name CommandName `json:"name"`
	Raw  string      `json:"raw"`
}

var commandPattern = regexp.MustCompile(`\{\s*!([^{}]*)\}|<\s*!([^<>]*)>|\]\s*!([^\[\]]*)\[`)

// interceptCommands removes every command span from text and returns the
// recognized commands in order of appearance. Unknown command words are
// removed but not reported.
func interceptCommands(text string) (string, []Command) {
	matches := commandPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	var (
		commands []Command
		b        strings.Builder
		last     int
	)
	for _, loc := range matches {
		b.WriteString(text[last:loc[0]])
		last = loc[1]
		body := firstGroup(text, loc)
		if name, ok := parseCommand(body); ok {
			commands = append(commands, Command{Name: name, Raw: strings.TrimSpace(body)})
		}
	}
	b.WriteString(text[last:])
	return b.String(), commands
}

func parseCommand(body string) (CommandName, bool) {
	words := strings.Fields(strings.ToLower(body))
	if len(words) == 0 {
		return "", false
	}
	switch words[0] {
	case "help":
		return CommandHelp, true
	case "stats":
		return CommandStats, true
	case "sstats":
		return CommandServerStats, true
	case "toggle":
		if len(words) > 1 && words[1] == "expanded" {
			return CommandToggleExpanded, true
		}
	}
	return "", false
}

func firstGroup(text string, loc []int) string {
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 {
			return text[loc[i]:loc[i+1]]
		}
	}
	return ""
}
