// Package giveaway owns the per-streamer giveaway lifecycle: creation,
// entrant tracking, winner selection, and the background expiry sweep.
package giveaway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jonboulle/clockwork"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
	"github.com/isaackogan/Live-Tok-Backend/internal/logging"
	"github.com/isaackogan/Live-Tok-Backend/internal/metrics"
)

const (
	maxFieldLen = 20

	minWinners = 1
	maxWinners = 5

	minDurationMinutes = 1
	maxDurationMinutes = 60
)

// Finalization reasons, used as metric labels.
const (
	reasonExpired   = "expired"
	reasonExplicit  = "explicit"
	reasonAbandoned = "abandoned"
)

// Engine holds all active giveaways. At most one giveaway is active per
// streamer; the maps are guarded by a single mutex and finalization is a
// compare-and-remove inside that critical section, so a sweep tick and a
// concurrent explicit finalize can never both win.
type Engine struct {
	archive domain.ResultArchive
	clock   clockwork.Clock

	mu        sync.Mutex
	giveaways map[string]*domain.Giveaway
	entrants  map[string]map[string]struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewEngine creates the engine and starts the expiry sweeper on the
// given interval.
func NewEngine(archive domain.ResultArchive, clock clockwork.Clock, sweepInterval time.Duration) *Engine {
	e := &Engine{
		archive:   archive,
		clock:     clock,
		giveaways: make(map[string]*domain.Giveaway),
		entrants:  make(map[string]map[string]struct{}),
		stopCh:    make(chan struct{}),
	}

	e.startSweeper(sweepInterval)
	return e
}

// Create starts a giveaway for a streamer. Fails with ErrGiveawayRunning
// if one is already active. Inputs are clamped: prize name and join word
// to 20 runes (whitespace stripped from the join word), winner count to
// [1,5], duration to [1,60] minutes. The end time is fixed at creation.
func (e *Engine) Create(streamerID, prizeName, joinWord string, winnerCount, durationMinutes int) (*domain.Giveaway, error) {
	now := e.clock.Now().UTC().Unix()

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.giveaways[streamerID]; ok {
		return nil, domain.ErrGiveawayRunning
	}

	duration := clamp(durationMinutes, minDurationMinutes, maxDurationMinutes)
	g := &domain.Giveaway{
		PrizeName:   truncate(prizeName),
		JoinWord:    sanitizeJoinWord(joinWord),
		WinnerCount: clamp(winnerCount, minWinners, maxWinners),
		StartTime:   now,
		EndTime:     now + int64(duration)*60,
	}

	e.giveaways[streamerID] = g
	e.entrants[streamerID] = make(map[string]struct{})
	metrics.ActiveGiveaways.Inc()

	return snapshot(g), nil
}

// Update replaces the prize name, join word, and winner count of an
// active giveaway. Start and end times are immutable once started.
func (e *Engine) Update(streamerID, prizeName, joinWord string, winnerCount int) (*domain.Giveaway, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.giveaways[streamerID]
	if !ok {
		return nil, domain.ErrGiveawayNotFound
	}

	g.PrizeName = truncate(prizeName)
	g.JoinWord = sanitizeJoinWord(joinWord)
	g.WinnerCount = clamp(winnerCount, minWinners, maxWinners)

	return snapshot(g), nil
}

// Get returns a copy of the active giveaway for a streamer, if any.
func (e *Engine) Get(streamerID string) (*domain.Giveaway, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.giveaways[streamerID]
	if !ok {
		return nil, false
	}
	return snapshot(g), true
}

// RecordEntry offers a chat message as a potential giveaway entry. It is
// a no-op when no giveaway is active or the join word does not appear in
// the message. Duplicate entries are free.
func (e *Engine) RecordEntry(streamerID, chatText, viewerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.giveaways[streamerID]
	if !ok || !strings.Contains(chatText, g.JoinWord) {
		return
	}
	e.entrants[streamerID][viewerID] = struct{}{}
}

// EntrantCount returns the number of unique entrants recorded for the
// active giveaway, or zero if none is active.
func (e *Engine) EntrantCount(streamerID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entrants[streamerID])
}

// Finalize ends an active giveaway. With pickWinner the winners are
// drawn and the result is archived; without, the giveaway is simply
// closed and nothing is persisted.
func (e *Engine) Finalize(ctx context.Context, streamerID string, pickWinner bool) (*domain.Giveaway, error) {
	return e.finalize(ctx, streamerID, pickWinner, reasonExplicit)
}

// Drop abandons the active giveaway for a streamer without finalizing or
// archiving anything. Idempotent; used when tracking stops.
func (e *Engine) Drop(streamerID string) {
	e.mu.Lock()
	_, ok := e.giveaways[streamerID]
	delete(e.giveaways, streamerID)
	delete(e.entrants, streamerID)
	e.mu.Unlock()

	if ok {
		metrics.ActiveGiveaways.Dec()
		metrics.GiveawaysFinalizedTotal.WithLabelValues(reasonAbandoned).Inc()
	}
}

// Sweep finalizes every giveaway whose end time has passed. Exported so
// tests can drive ticks directly; the background sweeper calls it on
// every interval. Failures are isolated per streamer.
func (e *Engine) Sweep(ctx context.Context) {
	start := e.clock.Now()
	defer func() {
		metrics.SweepDurationSeconds.Observe(e.clock.Since(start).Seconds())
	}()

	now := start.UTC().Unix()

	// Snapshot the expired keys first: finalize mutates the map being
	// scanned, and entries may appear or vanish concurrently.
	e.mu.Lock()
	var expired []string
	for streamerID, g := range e.giveaways {
		if g.EndTime < now {
			expired = append(expired, streamerID)
		}
	}
	e.mu.Unlock()

	for _, streamerID := range expired {
		if _, err := e.finalize(ctx, streamerID, true, reasonExpired); err != nil {
			if errors.Is(err, domain.ErrGiveawayNotFound) {
				// Lost the race against an explicit finalize or a drop.
				continue
			}
			logging.WithStreamer(streamerID).Error("Sweep: failed to finalize expired giveaway", "error", err)
		}
	}
}

// Stop terminates the background sweeper.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
}

func (e *Engine) finalize(ctx context.Context, streamerID string, pickWinner bool, reason string) (*domain.Giveaway, error) {
	endedAt := e.clock.Now().UTC().Unix()

	e.mu.Lock()
	g, ok := e.giveaways[streamerID]
	if !ok {
		e.mu.Unlock()
		return nil, domain.ErrGiveawayNotFound
	}

	g.EndedAt = &endedAt
	if pickWinner {
		g.Winners = drawWinners(e.entrants[streamerID], g.WinnerCount)
	}

	delete(e.giveaways, streamerID)
	delete(e.entrants, streamerID)
	result := snapshot(g)
	e.mu.Unlock()

	metrics.ActiveGiveaways.Dec()
	metrics.GiveawaysFinalizedTotal.WithLabelValues(reason).Inc()

	if pickWinner {
		if err := e.archive.Store(ctx, streamerID, result); err != nil {
			return result, fmt.Errorf("failed to archive giveaway result: %w", err)
		}
	}

	return result, nil
}

func (e *Engine) startSweeper(interval time.Duration) {
	ticker := e.clock.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.Chan():
				e.Sweep(context.Background())
			case <-e.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
	slog.Info("Giveaway sweeper started", "interval", interval.String())
}

// drawWinners samples min(count, |entrants|) viewer IDs uniformly
// without replacement via a shuffle.
func drawWinners(entrants map[string]struct{}, count int) []string {
	pool := make([]string, 0, len(entrants))
	for viewerID := range entrants {
		pool = append(pool, viewerID)
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}

func snapshot(g *domain.Giveaway) *domain.Giveaway {
	c := *g
	if g.Winners != nil {
		c.Winners = append([]string(nil), g.Winners...)
	}
	if g.EndedAt != nil {
		endedAt := *g.EndedAt
		c.EndedAt = &endedAt
	}
	return &c
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) > maxFieldLen {
		return string(runes[:maxFieldLen])
	}
	return s
}

func sanitizeJoinWord(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return truncate(stripped)
}
