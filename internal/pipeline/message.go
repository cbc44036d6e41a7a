package pipeline

import (
	"tagscout/internal/media"
	"tagscout/internal/stats"
	"tagscout/internal/synthesis"
	"tagscout/internal/tags"
)

// Message is one inbound chat message.
type Message struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	AuthorID  string `json:"author_id"`
	ServerID  string `json:"server_id"`
	ChannelID string `json:"channel_id"`
}

// Item is the answer for one tag: a record, or a not-found marker carrying
// the original request.
type Item struct {
	Request  media.SearchRequest `json:"request"`
	Record   *synthesis.Record   `json:"record,omitempty"`
	NotFound bool                `json:"not_found"`
}

// CommandResponse is the answer to one inline command. Text is always set;
// Summary and Expanded carry the structured result when there is one.
type CommandResponse struct {
	Command  tags.CommandName `json:"command"`
	Text     string           `json:"text"`
	Summary  *stats.Summary   `json:"summary,omitempty"`
	Expanded *bool            `json:"expanded,omitempty"`
	Failed   bool             `json:"failed,omitempty"`
}

// Reply is everything the bot answers to one message.
type Reply struct {
	MessageID string            `json:"message_id"`
	RequestID string            `json:"request_id,omitempty"`
	Items     []Item            `json:"items"`
	Commands  []CommandResponse `json:"commands,omitempty"`
	// Duplicate is set when the message was already handled.
	Duplicate bool `json:"duplicate,omitempty"`
}

// Empty reports whether the reply has nothing to send.
func (r Reply) Empty() bool {
	return len(r.Items) == 0 && len(r.Commands) == 0
}

// Found returns the records of the reply in order.
func (r Reply) Found() []*synthesis.Record {
	var out []*synthesis.Record
	for _, item := range r.Items {
		if item.Record != nil {
			out = append(out, item.Record)
		}
	}
	return out
}
