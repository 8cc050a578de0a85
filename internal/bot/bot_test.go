package bot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rss_fanout/internal/config"
	"rss_fanout/internal/fetcher"
	"rss_fanout/internal/notify"
	"rss_fanout/internal/storage"
)

type fakeAPI struct {
	sent    []tgbotapi.Chattable
	sendErr error
	chatErr error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetChat(_ tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	if f.chatErr != nil {
		return tgbotapi.Chat{}, f.chatErr
	}
	return tgbotapi.Chat{ID: 1}, nil
}

func (f *fakeAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	close(ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {}

type stubHTTP struct {
	body string
	err  error
}

func (s *stubHTTP) Do(_ *http.Request) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBufferString(s.body)),
	}, nil
}

const sampleRSS = `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
<item><guid>i1</guid><title>Hello</title><link>https://example.com/1</link></item>
</channel></rss>`

func newTestBot(t *testing.T, api *fakeAPI, httpClient fetcher.HTTPClient) *Bot {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return &Bot{
		api:     api,
		store:   store,
		cfg:     &config.Config{EmbedColor: 0x5865F2},
		fetcher: fetcher.New(httpClient),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func lastMessageText(t *testing.T, api *fakeAPI) string {
	t.Helper()
	if len(api.sent) == 0 {
		t.Fatal("no messages sent")
	}
	msg, ok := api.sent[len(api.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("last sent is %T, not MessageConfig", api.sent[len(api.sent)-1])
	}
	return msg.Text
}

func TestResolveDestination(t *testing.T) {
	tests := []struct {
		name     string
		chatErr  error
		wantGone bool
		wantErr  bool
	}{
		{name: "resolvable chat"},
		{
			name:     "chat not found",
			chatErr:  errors.New("Bad Request: chat not found"),
			wantGone: true,
			wantErr:  true,
		},
		{
			name:     "bot kicked",
			chatErr:  errors.New("Forbidden: bot was kicked from the supergroup chat"),
			wantGone: true,
			wantErr:  true,
		},
		{
			name:    "transient api error",
			chatErr: errors.New("Too Many Requests: retry after 5"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBot(t, &fakeAPI{chatErr: tt.chatErr}, &stubHTTP{})
			err := b.ResolveDestination(42)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if gone := errors.Is(err, notify.ErrDestinationGone); gone != tt.wantGone {
				t.Errorf("ErrDestinationGone = %v, want %v", gone, tt.wantGone)
			}
		})
	}
}

func TestDeliverChoosesPhotoForImagePayloads(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(t, api, &stubHTTP{})

	if err := b.Deliver(42, notify.Payload{Title: "Hi", ImageURL: "https://img.example.com/a.png"}); err != nil {
		t.Fatalf("deliver photo: %v", err)
	}
	if err := b.Deliver(42, notify.Payload{Title: "Hi"}); err != nil {
		t.Fatalf("deliver message: %v", err)
	}

	if len(api.sent) != 2 {
		t.Fatalf("sent %d, want 2", len(api.sent))
	}
	photo, ok := api.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("first sent is %T, want PhotoConfig", api.sent[0])
	}
	if photo.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("photo parse mode = %q", photo.ParseMode)
	}
	msg, ok := api.sent[1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("second sent is %T, want MessageConfig", api.sent[1])
	}
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("message parse mode = %q", msg.ParseMode)
	}
}

func TestDeliverMapsGoneErrors(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("Forbidden: bot was blocked by the user")}
	b := newTestBot(t, api, &stubHTTP{})

	err := b.Deliver(42, notify.Payload{Title: "Hi"})
	if !errors.Is(err, notify.ErrDestinationGone) {
		t.Fatalf("expected ErrDestinationGone, got %v", err)
	}
}

func TestHandleAdd(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	b := newTestBot(t, api, &stubHTTP{body: sampleRSS})

	b.handleAdd(ctx, 100, "https://example.com/rss My Title")

	if got := lastMessageText(t, api); !strings.Contains(got, "Subscribed!") {
		t.Fatalf("reply = %q", got)
	}

	subs, err := b.store.ListByChat(ctx, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription, got %d", len(subs))
	}
	if subs[0].FeedURL != "https://example.com/rss" || subs[0].Title != "My Title" {
		t.Errorf("saved %+v", subs[0])
	}
}

func TestHandleAddRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		http *stubHTTP
		args string
		want string
	}{
		{name: "missing url", http: &stubHTTP{}, args: "", want: "Usage"},
		{name: "not a url", http: &stubHTTP{}, args: "ftp://example.com", want: "Usage"},
		{name: "fetch failure", http: &stubHTTP{err: io.ErrUnexpectedEOF}, args: "https://example.com/rss", want: "Failed to fetch"},
		{name: "parse failure", http: &stubHTTP{body: "junk"}, args: "https://example.com/rss", want: "Failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			b := newTestBot(t, api, tt.http)
			b.handleAdd(ctx, 100, tt.args)

			if got := lastMessageText(t, api); !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q, want substring %q", got, tt.want)
			}
			subs, _ := b.store.ListByChat(ctx, 100)
			if len(subs) != 0 {
				t.Errorf("subscription saved despite %s", tt.name)
			}
		})
	}
}

func TestHandleRemoveChecksOwnership(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	b := newTestBot(t, api, &stubHTTP{body: sampleRSS})

	b.handleAdd(ctx, 100, "https://example.com/rss")
	subs, _ := b.store.ListByChat(ctx, 100)
	if len(subs) != 1 {
		t.Fatalf("setup failed, %d subscriptions", len(subs))
	}

	// Another chat cannot remove it.
	b.handleRemove(ctx, 999, "1")
	if got := lastMessageText(t, api); !strings.Contains(got, "not found") {
		t.Errorf("reply = %q", got)
	}
	if subs, _ := b.store.ListByChat(ctx, 100); len(subs) != 1 {
		t.Fatal("subscription was removed by a foreign chat")
	}

	// The owner can.
	b.handleRemove(ctx, 100, "1")
	if subs, _ := b.store.ListByChat(ctx, 100); len(subs) != 0 {
		t.Fatal("subscription was not removed by its owner")
	}
}

func TestHandleTitle(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	b := newTestBot(t, api, &stubHTTP{body: sampleRSS})

	b.handleAdd(ctx, 100, "https://example.com/rss")
	b.handleTitle(ctx, 100, "1 Better Name")

	subs, _ := b.store.ListByChat(ctx, 100)
	if len(subs) != 1 || subs[0].Title != "Better Name" {
		t.Fatalf("got %+v", subs)
	}
}

func TestHandlePreviewDeliversNewestItem(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	b := newTestBot(t, api, &stubHTTP{body: sampleRSS})

	b.handleAdd(ctx, 100, "https://example.com/rss")
	api.sent = nil

	b.handlePreview(ctx, 100, "1")

	if len(api.sent) != 1 {
		t.Fatalf("sent %d, want 1", len(api.sent))
	}
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", api.sent[0])
	}
	if !strings.Contains(msg.Text, "Hello") {
		t.Errorf("preview text = %q", msg.Text)
	}
}
