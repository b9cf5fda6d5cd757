// Package tiktok connects the backend to the upstream live platform:
// a websocket relay for broadcast events and an HTTP API for public
// account metadata.
package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
)

const eventBufferSize = 256

// frame is the wire format the relay sends for every broadcast event.
// Unknown types are skipped so the relay can add event kinds without
// breaking older backends.
type frame struct {
	Type      string `json:"type"`
	UniqueID  string `json:"unique_id"`
	Comment   string `json:"comment,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`

	DiamondCount int64 `json:"diamond_count,omitempty"`
	RepeatCount  int64 `json:"repeat_count,omitempty"`
	Streakable   bool  `json:"streakable,omitempty"`
	StreakEnd    bool  `json:"streak_end,omitempty"`
}

// RelayFeed opens live observations through the event relay. One
// websocket connection per tracked streamer.
type RelayFeed struct {
	relayURL string
	dialer   *websocket.Dialer
}

func NewRelayFeed(relayURL string) *RelayFeed {
	return &RelayFeed{
		relayURL: relayURL,
		dialer:   websocket.DefaultDialer,
	}
}

// Open dials the relay for the given streamer and starts decoding
// frames. It blocks until the websocket handshake completes or ctx is
// done; the relay rejects the handshake when the streamer is offline.
func (f *RelayFeed) Open(ctx context.Context, streamerID string) (domain.LiveStream, error) {
	u, err := url.Parse(f.relayURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse relay URL: %w", err)
	}
	u = u.JoinPath("live", url.PathEscape(streamerID))

	conn, resp, err := f.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("relay rejected connection (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	stream := &relayStream{
		streamerID: streamerID,
		conn:       conn,
		events:     make(chan domain.Event, eventBufferSize),
		done:       make(chan struct{}),
	}
	go stream.readLoop()

	return stream, nil
}

type relayStream struct {
	streamerID string
	conn       *websocket.Conn
	events     chan domain.Event
	done       chan struct{}
	closeOnce  sync.Once
}

func (s *relayStream) Events() <-chan domain.Event {
	return s.events
}

func (s *relayStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// readLoop decodes frames until the connection drops or the stream is
// closed, then closes the event channel so the session owner can
// observe the loss. Closing the conn only unblocks ReadMessage; the
// done channel unblocks a send parked on a full event buffer.
func (s *relayStream) readLoop() {
	defer close(s.events)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("Relay connection lost", "streamer_id", s.streamerID, "error", err)
			}
			return
		}

		event, ok := decodeFrame(payload)
		if !ok {
			continue
		}

		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}

func decodeFrame(payload []byte) (domain.Event, bool) {
	var fr frame
	if err := json.Unmarshal(payload, &fr); err != nil {
		slog.Debug("Skipping malformed relay frame", "error", err)
		return nil, false
	}
	if fr.UniqueID == "" {
		return nil, false
	}

	switch fr.Type {
	case "comment":
		return domain.CommentEvent{
			ViewerID:  fr.UniqueID,
			Text:      fr.Comment,
			AvatarURL: fr.AvatarURL,
		}, true
	case "gift":
		return domain.GiftEvent{
			ViewerID:     fr.UniqueID,
			DiamondCount: fr.DiamondCount,
			RepeatCount:  fr.RepeatCount,
			Streakable:   fr.Streakable,
			StreakEnd:    fr.StreakEnd,
			AvatarURL:    fr.AvatarURL,
		}, true
	default:
		return nil, false
	}
}
