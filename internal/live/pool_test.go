package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
	"github.com/isaackogan/Live-Tok-Backend/internal/giveaway"
)

// --- Test doubles ---

type fakeStream struct {
	events    chan domain.Event
	closeOnce sync.Once
	closeErr  error
}

func newFakeStream() *fakeStream {
	return &fakeStream{events: make(chan domain.Event, 16)}
}

func (s *fakeStream) Events() <-chan domain.Event { return s.events }

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() { close(s.events) })
	return s.closeErr
}

func (s *fakeStream) emit(e domain.Event) { s.events <- e }

type fakeFeed struct {
	mu      sync.Mutex
	streams map[string]*fakeStream
	openErr error
	opens   int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{streams: make(map[string]*fakeStream)}
}

func (f *fakeFeed) Open(_ context.Context, streamerID string) (domain.LiveStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	s := newFakeStream()
	f.streams[streamerID] = s
	return s, nil
}

func (f *fakeFeed) stream(streamerID string) *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[streamerID]
}

// memoryStats serializes writes per pair with one lock, matching the
// atomicity contract of the SQL upsert.
type memoryStats struct {
	mu      sync.Mutex
	rows    map[[2]string]*domain.Statistic
	failing bool
}

func newMemoryStats() *memoryStats {
	return &memoryStats{rows: make(map[[2]string]*domain.Statistic)}
}

func (m *memoryStats) Upsert(_ context.Context, viewerID, streamerID string, dComments, dXP, dCoins int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("db down")
	}
	key := [2]string{viewerID, streamerID}
	row, ok := m.rows[key]
	if !ok {
		row = &domain.Statistic{ViewerID: viewerID, StreamerID: streamerID}
		m.rows[key] = row
	}
	row.Comments += dComments
	row.Experience += dXP
	row.Coins += dCoins
	return nil
}

func (m *memoryStats) ListByStreamer(_ context.Context, streamerID string) ([]domain.Statistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Statistic
	for _, row := range m.rows {
		if row.StreamerID == streamerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memoryStats) get(viewerID, streamerID string) (domain.Statistic, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[[2]string{viewerID, streamerID}]
	if !ok {
		return domain.Statistic{}, false
	}
	return *row, true
}

type memoryAvatars struct {
	mu   sync.Mutex
	urls map[string]string
}

func newMemoryAvatars() *memoryAvatars {
	return &memoryAvatars{urls: make(map[string]string)}
}

func (m *memoryAvatars) SetAvatar(_ context.Context, viewerID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls[viewerID] = url
	return nil
}

func (m *memoryAvatars) GetAvatar(_ context.Context, viewerID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url, ok := m.urls[viewerID]
	return url, ok, nil
}

type nullArchive struct{}

func (nullArchive) Store(_ context.Context, _ string, _ *domain.Giveaway) error { return nil }
func (nullArchive) Load(_ context.Context, _ string) (*domain.Giveaway, error) {
	return nil, domain.ErrGiveawayNotFound
}

// --- Fixture ---

type fixture struct {
	pool    *Pool
	feed    *fakeFeed
	stats   *memoryStats
	avatars *memoryAvatars
	engine  *giveaway.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	feed := newFakeFeed()
	stats := newMemoryStats()
	avatars := newMemoryAvatars()
	engine := giveaway.NewEngine(nullArchive{}, clock, time.Hour)
	t.Cleanup(engine.Stop)

	xp := XPConfig{ChatMin: 5, ChatMax: 5, PerCoinMin: 2, PerCoinMax: 2}
	pool := NewPool(feed, stats, avatars, engine, clock, xp, time.Second)
	t.Cleanup(pool.Stop)

	return &fixture{pool: pool, feed: feed, stats: stats, avatars: avatars, engine: engine}
}

// --- Tests ---

func TestAttach_SecondAttachRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.pool.Attach(ctx, "streamer"))
	assert.True(t, f.pool.IsTracking("streamer"))

	err := f.pool.Attach(ctx, "streamer")
	assert.ErrorIs(t, err, domain.ErrAlreadyConnected)

	f.pool.Detach("streamer")
	assert.False(t, f.pool.IsTracking("streamer"))

	// After detach a new attach succeeds.
	require.NoError(t, f.pool.Attach(ctx, "streamer"))
}

func TestAttach_OpenFailureLeavesRegistryUnchanged(t *testing.T) {
	f := newFixture(t)
	f.feed.openErr = errors.New("authentication rejected")

	err := f.pool.Attach(context.Background(), "streamer")
	assert.ErrorIs(t, err, domain.ErrConnectionFailed)
	assert.False(t, f.pool.IsTracking("streamer"))
}

func TestDetach_Idempotent(t *testing.T) {
	f := newFixture(t)

	// Detaching a never-attached streamer must not error or panic.
	f.pool.Detach("ghost")

	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
	f.pool.Detach("streamer")
	f.pool.Detach("streamer")
	assert.False(t, f.pool.IsTracking("streamer"))
}

func TestDetach_AbandonsActiveGiveaway(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
	_, err := f.engine.Create("streamer", "prize", "join", 1, 5)
	require.NoError(t, err)

	f.pool.Detach("streamer")

	_, ok := f.engine.Get("streamer")
	assert.False(t, ok, "detach abandons the giveaway without finalizing")
}

func TestCommentEvent_UpdatesStatsAvatarAndEntrants(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
	_, err := f.engine.Create("streamer", "prize", "join", 5, 5)
	require.NoError(t, err)

	f.feed.stream("streamer").emit(domain.CommentEvent{
		ViewerID:  "viewer",
		Text:      "let me join please",
		AvatarURL: "https://cdn/avatar.jpg",
	})

	assert.Eventually(t, func() bool {
		row, ok := f.stats.get("viewer", "streamer")
		return ok && row.Comments == 1 && row.Experience == 5 && row.Coins == 0
	}, 2*time.Second, 5*time.Millisecond)

	url, ok, err := f.avatars.GetAvatar(context.Background(), "viewer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn/avatar.jpg", url)

	result, err := f.engine.Finalize(context.Background(), "streamer", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer"}, result.Winners)
}

func TestCommentEvent_NonMatchingTextNeverEnters(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
	_, err := f.engine.Create("streamer", "prize", "magicword", 5, 5)
	require.NoError(t, err)

	f.feed.stream("streamer").emit(domain.CommentEvent{ViewerID: "viewer", Text: "hello world"})

	assert.Eventually(t, func() bool {
		row, ok := f.stats.get("viewer", "streamer")
		return ok && row.Comments == 1
	}, 2*time.Second, 5*time.Millisecond)

	result, err := f.engine.Finalize(context.Background(), "streamer", true)
	require.NoError(t, err)
	assert.Empty(t, result.Winners)
}

func TestGiftEvent_CoinRule(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
	stream := f.feed.stream("streamer")

	// Mid-streak gift is worthless and must not create a row.
	stream.emit(domain.GiftEvent{ViewerID: "a", DiamondCount: 5, RepeatCount: 2, Streakable: true, StreakEnd: false})
	// Streak end: 3 * 5 * 2 = 30 coins, xp = 2 * 30 = 60.
	stream.emit(domain.GiftEvent{ViewerID: "b", DiamondCount: 5, RepeatCount: 3, Streakable: true, StreakEnd: true})
	// Non-streakable: 7 * 2 = 14 coins, xp = 28.
	stream.emit(domain.GiftEvent{ViewerID: "c", DiamondCount: 7, RepeatCount: 1, Streakable: false})

	assert.Eventually(t, func() bool {
		b, okB := f.stats.get("b", "streamer")
		c, okC := f.stats.get("c", "streamer")
		return okB && okC &&
			b.Coins == 30 && b.Experience == 60 && b.Comments == 0 &&
			c.Coins == 14 && c.Experience == 28
	}, 2*time.Second, 5*time.Millisecond)

	_, ok := f.stats.get("a", "streamer")
	assert.False(t, ok, "worthless gift must not touch statistics")
}

func TestEventErrors_AreIsolatedPerEvent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
	_, err := f.engine.Create("streamer", "prize", "join", 5, 5)
	require.NoError(t, err)

	f.stats.failing = true
	f.feed.stream("streamer").emit(domain.CommentEvent{ViewerID: "viewer", Text: "join"})

	// The entry is recorded even though the statistics write failed.
	assert.Eventually(t, func() bool {
		return f.engine.EntrantCount("streamer") == 1
	}, 2*time.Second, 5*time.Millisecond)

	// The session survives and processes subsequent events.
	f.stats.failing = false
	f.feed.stream("streamer").emit(domain.CommentEvent{ViewerID: "viewer", Text: "more"})
	assert.Eventually(t, func() bool {
		row, ok := f.stats.get("viewer", "streamer")
		return ok && row.Comments == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestConnectionLoss_RemovesSessionAndDropsGiveaway(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
	_, err := f.engine.Create("streamer", "prize", "join", 1, 5)
	require.NoError(t, err)

	require.NoError(t, f.feed.stream("streamer").Close())

	assert.Eventually(t, func() bool {
		return !f.pool.IsTracking("streamer")
	}, 2*time.Second, 5*time.Millisecond)

	_, ok := f.engine.Get("streamer")
	assert.False(t, ok)

	// Re-attach works after connection loss.
	require.NoError(t, f.pool.Attach(context.Background(), "streamer"))
}

func TestConcurrentUpserts_NoLostUpdates(t *testing.T) {
	stats := newMemoryStats()
	ctx := context.Background()

	require.NoError(t, stats.Upsert(ctx, "viewer", "streamer", 0, 5, 0))

	var wg sync.WaitGroup
	for range 1000 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = stats.Upsert(ctx, "viewer", "streamer", 0, 1, 0)
		}()
	}
	wg.Wait()

	row, ok := stats.get("viewer", "streamer")
	require.True(t, ok)
	assert.Equal(t, int64(1005), row.Experience)
}

func TestRandRange(t *testing.T) {
	for range 100 {
		v := randRange(3, 8)
		assert.GreaterOrEqual(t, v, int64(3))
		assert.LessOrEqual(t, v, int64(8))
	}
	assert.Equal(t, int64(4), randRange(4, 4))
}
