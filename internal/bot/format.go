package bot

import (
	"fmt"
	"html"
	"strings"

	"rss_fanout/internal/model"
	"rss_fanout/internal/notify"
)

// FormatPayload renders a notification payload as a Telegram HTML message.
func FormatPayload(p notify.Payload) string {
	var b strings.Builder

	switch {
	case p.Title != "" && p.Link != "":
		fmt.Fprintf(&b, "<b><a href=%q>%s</a></b>", p.Link, escape(p.Title))
	case p.Title != "":
		fmt.Fprintf(&b, "<b>%s</b>", escape(p.Title))
	case p.Link != "":
		b.WriteString(escape(p.Link))
	}

	if p.AuthorName != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if p.AuthorURL != "" {
			fmt.Fprintf(&b, "by <a href=%q>%s</a>", p.AuthorURL, escape(p.AuthorName))
		} else {
			fmt.Fprintf(&b, "by %s", escape(p.AuthorName))
		}
	}

	if p.Description != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(escape(p.Description))
	}

	var footer []string
	if p.FooterText != "" {
		footer = append(footer, escape(p.FooterText))
	}
	if p.Timestamp != nil {
		footer = append(footer, p.Timestamp.UTC().Format("2 Jan 2006 15:04 UTC"))
	}
	if len(footer) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "<i>%s</i>", strings.Join(footer, " • "))
	}

	return b.String()
}

// FormatSubscriptionList formats a chat's subscriptions for display.
func FormatSubscriptionList(subs []model.Subscription) string {
	if len(subs) == 0 {
		return "This chat has no subscriptions yet. Use /add <url> to add one."
	}
	var b strings.Builder
	b.WriteString("Subscriptions:\n")
	for _, sub := range subs {
		fmt.Fprintf(&b, "\n#%d %s\n", sub.ID, sub.FeedURL)
		if sub.Title != "" {
			fmt.Fprintf(&b, "   title: %s\n", sub.Title)
		}
	}
	return b.String()
}

func escape(s string) string {
	return html.EscapeString(s)
}
