package bot

import (
	"context"
	"fmt"

	"rss_fanout/internal/feed"
	"rss_fanout/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to RSS Fanout Bot!

Subscribe this chat to RSS, Atom, or danbooru feeds and get new items as they appear.

Quick start:
1. /add <url> — subscribe to a feed
2. /list — show this chat's subscriptions

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Commands:
/add <url> [title] — subscribe to a feed, optionally with a custom title
/list — show all subscriptions in this chat
/remove <id> — delete a subscription
/title <id> <title> — set or change the custom title
/preview <id> — render the newest item of a feed right now

Feeds are checked once a minute. Items already published when a feed is
first added are not announced.`)
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) {
	url, title, err := ParseAddArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /add <url> [title]")
		return
	}

	body, err := b.fetcher.Fetch(ctx, url)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to fetch feed: %v", err))
		return
	}
	if _, err := feed.Parse(feed.KindForURL(url), body); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to parse feed: %v", err))
		return
	}

	sub := &model.Subscription{
		ChatID:  chatID,
		FeedURL: url,
		Title:   title,
	}
	if err := b.store.CreateSubscription(ctx, sub); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save subscription: %v", err))
		return
	}

	b.reply(chatID, fmt.Sprintf("Subscribed!\n#%d %s\nNew items will be announced here.", sub.ID, sub.FeedURL))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	subs, err := b.store.ListByChat(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatSubscriptionList(subs))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /remove <id>")
		return
	}

	sub, err := b.store.GetSubscription(ctx, id)
	if err != nil || sub.ChatID != chatID {
		b.reply(chatID, fmt.Sprintf("Subscription #%d not found.", id))
		return
	}

	if err := b.store.DeleteSubscription(ctx, id); err != nil {
		b.reply(chatID, fmt.Sprintf("Error deleting subscription: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Subscription #%d removed.", id))
}

func (b *Bot) handleTitle(ctx context.Context, chatID int64, args string) {
	id, title, err := ParseTitleArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	sub, err := b.store.GetSubscription(ctx, id)
	if err != nil || sub.ChatID != chatID {
		b.reply(chatID, fmt.Sprintf("Subscription #%d not found.", id))
		return
	}

	sub.Title = title
	if err := b.store.UpdateSubscription(ctx, sub); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Subscription #%d titled \"%s\".", id, title))
}

func (b *Bot) handlePreview(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /preview <id>")
		return
	}

	sub, err := b.store.GetSubscription(ctx, id)
	if err != nil || sub.ChatID != chatID {
		b.reply(chatID, fmt.Sprintf("Subscription #%d not found.", id))
		return
	}

	body, err := b.fetcher.Fetch(ctx, sub.FeedURL)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to fetch: %v", err))
		return
	}
	items, err := feed.Parse(feed.KindForURL(sub.FeedURL), body)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to parse: %v", err))
		return
	}
	if len(items) == 0 {
		b.reply(chatID, fmt.Sprintf("Feed #%d has no items.", id))
		return
	}

	payload := feed.BuildPayload(items[0], sub.Title, b.cfg.EmbedColor)
	if err := b.Deliver(chatID, payload); err != nil {
		b.log.Error("preview delivery", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Failed to send preview: %v", err))
	}
}
