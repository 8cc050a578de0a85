// Package poller implements the recurring feed poll: fetch each subscribed
// URL once, work out which items are new, and fan them out to every
// subscriber of that URL.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"rss_fanout/internal/feed"
	"rss_fanout/internal/fetcher"
	"rss_fanout/internal/model"
	"rss_fanout/internal/notify"
	"rss_fanout/internal/storage"
)

// maxDeliveriesPerCycle caps how many items one subscriber receives for
// one feed in a single cycle.
const maxDeliveriesPerCycle = 10

// Notifier is the delivery transport for notification payloads.
type Notifier interface {
	// ResolveDestination reports whether a chat still exists. Returns an
	// error wrapping notify.ErrDestinationGone when it does not.
	ResolveDestination(chatID int64) error
	Deliver(chatID int64, p notify.Payload) error
}

// Poller runs poll cycles on a fixed interval.
type Poller struct {
	store    storage.Storage
	fetcher  *fetcher.Fetcher
	notifier Notifier
	tracker  *tracker
	log      *slog.Logger
	tick     time.Duration
	color    int

	mu      sync.Mutex
	started bool
}

// New creates a Poller with the default HTTP client.
func New(store storage.Storage, notifier Notifier, log *slog.Logger) *Poller {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), notifier, log)
}

// NewWithFetcher creates a Poller with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, f *fetcher.Fetcher, notifier Notifier, log *slog.Logger) *Poller {
	return &Poller{
		store:    store,
		fetcher:  f,
		notifier: notifier,
		tracker:  newTracker(),
		log:      log,
		tick:     time.Minute,
		color:    0x5865F2,
	}
}

// SetTickInterval overrides the default 60-second poll interval.
func (p *Poller) SetTickInterval(d time.Duration) {
	p.tick = d
}

// SetEmbedColor sets the accent color carried on rendered payloads.
func (p *Poller) SetEmbedColor(c int) {
	p.color = c
}

// Start launches the poll loop in the background. A second call while the
// loop is active is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.run(ctx)
}

// run executes one cycle immediately, then one per tick until ctx is
// cancelled. Cycle failures never escape into the loop; a failure in the
// loop itself is logged above error severity and ends only the loop, not
// the process.
func (p *Poller) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Log(ctx, slog.LevelError+4, "poll loop crashed outside cycle boundary", "panic", r)
		}
	}()

	p.cycle(ctx)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx)
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("unhandled panic in poll cycle", "panic", r)
		}
	}()
	p.pollOnce(ctx)
}

type urlGroup struct {
	url  string // representative URL as stored, used for the fetch
	subs []model.Subscription
}

// pollOnce is one full pass over all subscribed feed URLs.
func (p *Poller) pollOnce(ctx context.Context) {
	subs, err := p.store.ListSubscriptions(ctx)
	if err != nil {
		p.log.Error("list subscriptions", "error", err)
		return
	}

	groups := make(map[string]*urlGroup)
	var order []string
	for _, sub := range subs {
		key := canonicalURL(sub.FeedURL)
		g, ok := groups[key]
		if !ok {
			g = &urlGroup{url: sub.FeedURL}
			groups[key] = g
			order = append(order, key)
		}
		g.subs = append(g.subs, sub)
	}

	gone := make(map[int64]struct{})
	for _, key := range order {
		if ctx.Err() != nil {
			return
		}
		p.pollGroup(ctx, groups[key], gone)
	}

	for chatID := range gone {
		if err := p.store.DeleteByChat(ctx, chatID); err != nil {
			p.log.Error("prune dead destination", "chat_id", chatID, "error", err)
			continue
		}
		p.log.Info("pruned subscriptions of dead destination", "chat_id", chatID)
	}
}

// pollGroup fetches one URL and fans new items out to its subscribers.
// Every failure inside is contained to this group or a single subscriber.
func (p *Poller) pollGroup(ctx context.Context, g *urlGroup, gone map[int64]struct{}) {
	body, err := p.fetcher.Fetch(ctx, g.url)
	if err != nil {
		p.log.Warn("fetch feed", "url", g.url, "error", err)
		return
	}

	items, err := feed.Parse(feed.KindForURL(g.url), body)
	if err != nil {
		p.log.Warn("process feed", "url", g.url, "error", err)
		return
	}

	firstCycle, prev := p.tracker.beginCycle(g.url)

	// Two sets: processed collects every fingerprint present this cycle
	// and becomes the committed set no matter what; fresh is the subset
	// actually eligible for delivery. A first sighting of a URL seeds the
	// tracker without announcing the feed's existing history.
	processed := make(map[uint64]struct{}, len(items))
	var fresh []feed.Item
	for _, it := range items {
		processed[it.Fingerprint] = struct{}{}
		if firstCycle {
			continue
		}
		if _, seen := prev[it.Fingerprint]; seen {
			continue
		}
		fresh = append(fresh, it)
	}

	for _, sub := range g.subs {
		if err := p.notifier.ResolveDestination(sub.ChatID); err != nil {
			if errors.Is(err, notify.ErrDestinationGone) {
				gone[sub.ChatID] = struct{}{}
				p.log.Info("destination gone", "url", g.url, "chat_id", sub.ChatID)
			} else {
				p.log.Warn("resolve destination", "url", g.url, "chat_id", sub.ChatID, "error", err)
			}
			continue
		}

		delivered := 0
		for _, it := range fresh {
			if delivered == maxDeliveriesPerCycle {
				break
			}
			payload := feed.BuildPayload(it, sub.Title, p.color)
			if err := p.notifier.Deliver(sub.ChatID, payload); err != nil {
				p.log.Warn("deliver item", "url", g.url, "chat_id", sub.ChatID, "error", err)
				break
			}
			delivered++
		}
		if delivered > 0 {
			p.log.Info("delivered items", "url", g.url, "chat_id", sub.ChatID, "count", delivered)
		}
	}

	p.tracker.commitCycle(g.url, processed)
}
