// Package discord adapts Discord's HTTP interactions to the bot: signature
// verification, interaction payloads, rendering and the REST calls that edit
// deferred responses.
package discord

import (
	json "github.com/goccy/go-json"
)

type InteractionType int

const (
	InteractionPing               InteractionType = 1
	InteractionApplicationCommand InteractionType = 2
	InteractionMessageComponent   InteractionType = 3
)

type ResponseType int

const (
	ResponsePong                   ResponseType = 1
	ResponseChannelMessage         ResponseType = 4
	ResponseDeferredChannelMessage ResponseType = 5
	ResponseDeferredUpdateMessage  ResponseType = 6
)

const (
	flagEphemeral = 1 << 6

	componentActionRow = 1
	componentButton    = 2

	buttonSecondary = 2
	buttonSuccess   = 3
	buttonDanger    = 4

	optionString  = 3
	optionInteger = 4
	optionNumber  = 10
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type Member struct {
	User *User `json:"user,omitempty"`
}

type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          InteractionType `json:"type"`
	Token         string          `json:"token"`
	Data          InteractionData `json:"data"`
	GuildID       string          `json:"guild_id,omitempty"`
	ChannelID     string          `json:"channel_id,omitempty"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
}

// UserID is the invoking user: Member.User in guilds, User in DMs.
func (i Interaction) UserID() string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

type InteractionData struct {
	Name     string              `json:"name,omitempty"`
	Options  []InteractionOption `json:"options,omitempty"`
	CustomID string              `json:"custom_id,omitempty"`
}

type InteractionOption struct {
	Name  string          `json:"name"`
	Type  int             `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type InteractionResponse struct {
	Type ResponseType `json:"type"`
	Data any          `json:"data,omitempty"`
}

type deferredData struct {
	Flags int `json:"flags"`
}

// WebhookMessage is the body of interaction responses and follow-up edits.
// Components is always sent so an edit can clear stale buttons.
type WebhookMessage struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds"`
	Components []Component `json:"components"`
	Flags      int         `json:"flags,omitempty"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type Component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Disabled   bool        `json:"disabled,omitempty"`
	Components []Component `json:"components,omitempty"`
}
