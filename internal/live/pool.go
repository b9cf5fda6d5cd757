// Package live owns the registry of attached live sessions and bridges
// inbound broadcast events to the statistics pipeline and the giveaway
// engine.
package live

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
	"github.com/isaackogan/Live-Tok-Backend/internal/giveaway"
	"github.com/isaackogan/Live-Tok-Backend/internal/logging"
	"github.com/isaackogan/Live-Tok-Backend/internal/metrics"
)

// XPConfig holds the random experience ranges applied per event.
type XPConfig struct {
	ChatMin    int
	ChatMax    int
	PerCoinMin int
	PerCoinMax int
}

type session struct {
	streamerID string
	stream     domain.LiveStream
	cancel     context.CancelFunc
	startedAt  time.Time
}

// Pool maintains at most one live session per streamer. Attach and
// detach are request-driven; event processing runs in one goroutine per
// session so events of a single streamer stay in upstream order.
type Pool struct {
	feed      domain.LiveFeed
	stats     domain.StatisticsRepository
	avatars   domain.AvatarCache
	giveaways *giveaway.Engine
	clock     clockwork.Clock

	xp             XPConfig
	connectTimeout time.Duration

	attachGroup singleflight.Group

	mu       sync.Mutex
	sessions map[string]*session

	wg sync.WaitGroup
}

// NewPool creates the session registry.
func NewPool(feed domain.LiveFeed, stats domain.StatisticsRepository, avatars domain.AvatarCache, giveaways *giveaway.Engine, clock clockwork.Clock, xp XPConfig, connectTimeout time.Duration) *Pool {
	return &Pool{
		feed:           feed,
		stats:          stats,
		avatars:        avatars,
		giveaways:      giveaways,
		clock:          clock,
		xp:             xp,
		connectTimeout: connectTimeout,
		sessions:       make(map[string]*session),
	}
}

// Attach opens a live session for a streamer and starts processing its
// events. Fails with ErrAlreadyConnected if a session exists and with
// ErrConnectionFailed if the upstream feed cannot be opened; the
// registry is unchanged on failure. Concurrent attaches for the same
// streamer are collapsed.
func (p *Pool) Attach(ctx context.Context, streamerID string) error {
	_, err, _ := p.attachGroup.Do(streamerID, func() (any, error) {
		return nil, p.attach(ctx, streamerID)
	})
	return err
}

func (p *Pool) attach(ctx context.Context, streamerID string) error {
	p.mu.Lock()
	_, exists := p.sessions[streamerID]
	p.mu.Unlock()
	if exists {
		return domain.ErrAlreadyConnected
	}

	// A hung upstream connect must not wedge the registry.
	openCtx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	stream, err := p.feed.Open(openCtx, streamerID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionFailed, err)
	}

	sessCtx, sessCancel := context.WithCancel(context.Background())
	s := &session{
		streamerID: streamerID,
		stream:     stream,
		cancel:     sessCancel,
		startedAt:  p.clock.Now(),
	}

	p.mu.Lock()
	if _, exists := p.sessions[streamerID]; exists {
		p.mu.Unlock()
		sessCancel()
		_ = stream.Close()
		return domain.ErrAlreadyConnected
	}
	p.sessions[streamerID] = s
	p.mu.Unlock()

	metrics.ActiveSessions.Inc()
	logging.WithStreamer(streamerID).Info("Live session attached")

	p.wg.Add(1)
	go p.processEvents(sessCtx, s)

	return nil
}

// Detach removes the session for a streamer, if any, and abandons any
// active giveaway for it. Idempotent; close errors on an already-broken
// connection are swallowed.
func (p *Pool) Detach(streamerID string) {
	p.mu.Lock()
	s, ok := p.sessions[streamerID]
	if ok {
		delete(p.sessions, streamerID)
	}
	p.mu.Unlock()

	if ok {
		s.cancel()
		_ = s.stream.Close()
		metrics.ActiveSessions.Dec()
		logging.WithStreamer(streamerID).Info("Live session detached")
	}

	p.giveaways.Drop(streamerID)
}

// IsTracking reports whether a session is attached for a streamer.
func (p *Pool) IsTracking(streamerID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.sessions[streamerID]
	return ok
}

// Stop detaches all sessions and waits for their processing loops.
func (p *Pool) Stop() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.sessions))
	for streamerID := range p.sessions {
		ids = append(ids, streamerID)
	}
	p.mu.Unlock()

	for _, streamerID := range ids {
		p.Detach(streamerID)
	}
	p.wg.Wait()
}

func (p *Pool) processEvents(ctx context.Context, s *session) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.stream.Events():
			if !ok {
				p.onConnectionLost(s)
				return
			}
			p.dispatch(ctx, s.streamerID, event)
		}
	}
}

// onConnectionLost removes the session after the upstream closed the
// event stream. The identity check keeps a stale loop from tearing down
// a newer session attached for the same streamer.
func (p *Pool) onConnectionLost(s *session) {
	p.mu.Lock()
	current, ok := p.sessions[s.streamerID]
	if ok && current == s {
		delete(p.sessions, s.streamerID)
	} else {
		ok = false
	}
	p.mu.Unlock()

	if !ok {
		return
	}

	s.cancel()
	_ = s.stream.Close()
	metrics.ActiveSessions.Dec()
	p.giveaways.Drop(s.streamerID)
	logging.WithStreamer(s.streamerID).Warn("Live session lost connection", "uptime", p.clock.Since(s.startedAt).String())
}

func (p *Pool) dispatch(ctx context.Context, streamerID string, event domain.Event) {
	switch e := event.(type) {
	case domain.CommentEvent:
		p.handleComment(ctx, streamerID, e)
	case domain.GiftEvent:
		p.handleGift(ctx, streamerID, e)
	default:
		logging.WithStreamer(streamerID).Debug("Ignoring unknown event type")
	}
}

func (p *Pool) handleComment(ctx context.Context, streamerID string, event domain.CommentEvent) {
	metrics.EventsProcessedTotal.WithLabelValues("comment").Inc()

	p.cacheAvatar(ctx, event.ViewerID, event.AvatarURL)

	xp := randRange(p.xp.ChatMin, p.xp.ChatMax)
	if err := p.stats.Upsert(ctx, event.ViewerID, streamerID, 1, xp, 0); err != nil {
		metrics.EventErrorsTotal.WithLabelValues("comment").Inc()
		logging.WithStreamer(streamerID).Error("Failed to record comment statistics", "viewer_id", event.ViewerID, "error", err)
	}

	// Giveaway entries must survive a failed statistics write.
	p.giveaways.RecordEntry(streamerID, event.Text, event.ViewerID)
}

func (p *Pool) handleGift(ctx context.Context, streamerID string, event domain.GiftEvent) {
	metrics.EventsProcessedTotal.WithLabelValues("gift").Inc()

	p.cacheAvatar(ctx, event.ViewerID, event.AvatarURL)

	coins := event.CoinValue()
	if coins < 1 {
		return
	}

	xp := randRange(p.xp.PerCoinMin, p.xp.PerCoinMax) * coins
	if err := p.stats.Upsert(ctx, event.ViewerID, streamerID, 0, xp, coins); err != nil {
		metrics.EventErrorsTotal.WithLabelValues("gift").Inc()
		logging.WithStreamer(streamerID).Error("Failed to record gift statistics", "viewer_id", event.ViewerID, "error", err)
	}
}

// cacheAvatar is a best-effort side effect independent of the
// statistics write.
func (p *Pool) cacheAvatar(ctx context.Context, viewerID, url string) {
	if url == "" {
		return
	}
	if err := p.avatars.SetAvatar(ctx, viewerID, url); err != nil {
		logging.WithViewer(viewerID).Debug("Failed to cache avatar", "error", err)
	}
}

func randRange(lo, hi int) int64 {
	if hi <= lo {
		return int64(lo)
	}
	return int64(lo + rand.IntN(hi-lo+1))
}
