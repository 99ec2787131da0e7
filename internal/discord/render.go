package discord

import (
	"strings"
	"time"
	"unicode/utf8"

	"bankbot/internal/reply"
)

// Discord embed limits.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFields      = 25
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFooter      = 2048
)

const (
	confirmPrefix = "confirm:"
	cancelPrefix  = "cancel:"
)

// Render converts a reply into an ephemeral message. Replies without actions
// render an empty component list, which removes any buttons on edit.
func Render(r reply.Reply) WebhookMessage {
	embed := Embed{
		Title:       clip(r.Title, maxTitle),
		Description: clip(r.Description, maxDescription),
		Color:       r.Category.Color(),
	}
	if !r.Timestamp.IsZero() {
		embed.Timestamp = r.Timestamp.UTC().Format(time.RFC3339)
	}
	for i, f := range r.Fields {
		if i == maxFields {
			break
		}
		embed.Fields = append(embed.Fields, EmbedField{
			Name:   clip(f.Name, maxFieldName),
			Value:  clip(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	if r.Footer != "" {
		embed.Footer = &EmbedFooter{Text: clip(r.Footer, maxFooter)}
	}

	msg := WebhookMessage{
		Embeds:     []Embed{embed},
		Components: []Component{},
		Flags:      flagEphemeral,
	}
	if a := r.Actions; a != nil {
		style := buttonSuccess
		if a.Destructive {
			style = buttonDanger
		}
		msg.Components = []Component{{
			Type: componentActionRow,
			Components: []Component{
				{Type: componentButton, Style: style, Label: label(a.ConfirmLabel, "Confirm"), CustomID: confirmPrefix + a.FlowID, Disabled: a.Disabled},
				{Type: componentButton, Style: buttonSecondary, Label: label(a.CancelLabel, "Cancel"), CustomID: cancelPrefix + a.FlowID, Disabled: a.Disabled},
			},
		}}
	}
	return msg
}

// ParseCustomID splits a button id into the flow id and whether it confirms.
func ParseCustomID(customID string) (flowID string, confirm bool, ok bool) {
	if id, found := strings.CutPrefix(customID, confirmPrefix); found && id != "" {
		return id, true, true
	}
	if id, found := strings.CutPrefix(customID, cancelPrefix); found && id != "" {
		return id, false, true
	}
	return "", false, false
}

func label(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
