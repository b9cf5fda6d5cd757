package domain

import (
	"context"
	"time"
)

// --- Model types ---

// Statistic is the accumulated engagement row for one (viewer, streamer)
// pair. Counters only ever grow; rows are created lazily on first event.
type Statistic struct {
	ViewerID   string `json:"unique_id"`
	StreamerID string `json:"-"`
	Comments   int64  `json:"messages"`
	Experience int64  `json:"experience"`
	Coins      int64  `json:"coins"`
}

// LeaderboardEntry is a Statistic annotated with the derived level
// projection and the cached avatar URL (nil if the cache has expired).
type LeaderboardEntry struct {
	Statistic
	LevelInfo
	AvatarURL *string `json:"avatar_url"`
}

// Giveaway is the configuration of a running (or just finalized)
// giveaway. Timestamps are unix seconds; Winners and EndedAt are only
// set once the giveaway has been finalized.
type Giveaway struct {
	PrizeName   string   `json:"name"`
	JoinWord    string   `json:"join_word"`
	WinnerCount int      `json:"winner_count"`
	StartTime   int64    `json:"start_time"`
	EndTime     int64    `json:"end_time"`
	Winners     []string `json:"winners,omitempty"`
	EndedAt     *int64   `json:"ended_at,omitempty"`
}

// Profile is the public metadata of a broadcast platform account.
type Profile struct {
	UniqueID  string `json:"unique_id"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
	Verified  bool   `json:"verified"`
}

// Dashboard is the creator overview: tracking state plus the current or
// most recently archived giveaway (nil if neither exists).
type Dashboard struct {
	UniqueID string    `json:"unique_id"`
	Tracking bool      `json:"tracking"`
	Giveaway *Giveaway `json:"giveaway"`
}

// --- Collaborator contracts ---

// StatisticsRepository persists per-(viewer, streamer) counters.
// Upsert must be atomic per pair: concurrent calls for the same pair may
// not lose updates, calls for different pairs may not block each other.
type StatisticsRepository interface {
	Upsert(ctx context.Context, viewerID, streamerID string, deltaComments, deltaExperience, deltaCoins int64) error
	ListByStreamer(ctx context.Context, streamerID string) ([]Statistic, error)
}

// AvatarCache stores viewer avatar URLs with a bounded TTL.
type AvatarCache interface {
	SetAvatar(ctx context.Context, viewerID, url string) error
	GetAvatar(ctx context.Context, viewerID string) (string, bool, error)
}

// ResultArchive persists finalized giveaway results with a bounded
// retention TTL. Load returns ErrGiveawayNotFound when no result is
// archived and ErrArchiveUnavailable when the store is unreachable.
type ResultArchive interface {
	Store(ctx context.Context, streamerID string, giveaway *Giveaway) error
	Load(ctx context.Context, streamerID string) (*Giveaway, error)
}

// AuthStore resolves bearer tokens to streamer unique IDs. Token
// issuance happens elsewhere; the core only looks tokens up.
type AuthStore interface {
	Issue(ctx context.Context, streamerID string, ttl time.Duration) (string, error)
	Lookup(ctx context.Context, token string) (string, bool, error)
}

// LiveFeed opens live broadcast observations. Implementations wrap the
// upstream event source; Open blocks until the connection is
// established or ctx is done.
type LiveFeed interface {
	Open(ctx context.Context, streamerID string) (LiveStream, error)
}

// LiveStream is one established observation. Events delivers typed
// events in upstream order and is closed on connection loss or Close.
type LiveStream interface {
	Events() <-chan Event
	Close() error
}

// ProfileClient fetches public account metadata.
type ProfileClient interface {
	GetProfile(ctx context.Context, uniqueID string) (*Profile, error)
}
