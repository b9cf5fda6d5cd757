package domain

// Event is a typed inbound broadcast event. The upstream feed may
// duplicate or drop events; consumers must tolerate both.
type Event interface {
	Viewer() string
}

// CommentEvent is a chat message posted during the broadcast.
type CommentEvent struct {
	ViewerID  string
	Text      string
	AvatarURL string
}

func (e CommentEvent) Viewer() string { return e.ViewerID }

// GiftEvent is a gifted-currency event. Streakable gifts repeat while
// the viewer holds the button and only the final event of the streak
// carries the full repeat count.
type GiftEvent struct {
	ViewerID     string
	DiamondCount int64
	RepeatCount  int64
	Streakable   bool
	StreakEnd    bool
	AvatarURL    string
}

func (e GiftEvent) Viewer() string { return e.ViewerID }

// CoinValue returns the coin value of the gift. Streakable gifts count
// only once, when the streak ends; unfinished streaks are worth nothing.
func (e GiftEvent) CoinValue() int64 {
	switch {
	case e.Streakable && e.StreakEnd:
		return e.RepeatCount * e.DiamondCount * 2
	case !e.Streakable:
		return e.DiamondCount * 2
	default:
		return 0
	}
}
