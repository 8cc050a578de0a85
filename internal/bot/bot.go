// Package bot implements the Telegram command surface and the delivery
// transport for rendered feed notifications.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rss_fanout/internal/config"
	"rss_fanout/internal/fetcher"
	"rss_fanout/internal/notify"
	"rss_fanout/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot handles user commands and delivers notification payloads.
type Bot struct {
	api     telegramAPI
	store   storage.Storage
	cfg     *config.Config
	fetcher *fetcher.Fetcher
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	f := fetcher.New(http.DefaultClient)
	f.SetMaxBodyBytes(cfg.MaxFeedBytes)

	return &Bot{
		api:     api,
		store:   store,
		cfg:     cfg,
		fetcher: f,
		log:     log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// ResolveDestination checks that a chat still exists and is reachable.
func (b *Bot) ResolveDestination(chatID int64) error {
	_, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		if destinationGone(err) {
			return fmt.Errorf("chat %d: %w", chatID, notify.ErrDestinationGone)
		}
		return fmt.Errorf("get chat %d: %w", chatID, err)
	}
	return nil
}

// Deliver sends one rendered payload to a chat. Payloads carrying an image
// go out as a photo with caption, the rest as an HTML message.
func (b *Bot) Deliver(chatID int64, p notify.Payload) error {
	text := FormatPayload(p)

	var c tgbotapi.Chattable
	if p.ImageURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(p.ImageURL))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
		c = photo
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		c = msg
	}

	if _, err := b.api.Send(c); err != nil {
		if destinationGone(err) {
			return fmt.Errorf("chat %d: %w", chatID, notify.ErrDestinationGone)
		}
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// destinationGone reports whether a Telegram API error means the chat is
// permanently unreachable rather than transiently failing.
func destinationGone(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"chat not found",
		"bot was kicked",
		"bot was blocked",
		"user is deactivated",
		"the group chat was deleted",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "add":
		b.handleAdd(ctx, chatID, args)
	case "list":
		b.handleList(ctx, chatID)
	case "remove":
		b.handleRemove(ctx, chatID, args)
	case "title":
		b.handleTitle(ctx, chatID, args)
	case "preview":
		b.handlePreview(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
