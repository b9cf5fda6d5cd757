package tiktok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaackogan/Live-Tok-Backend/internal/domain"
)

func TestDecodeFrame_Comment(t *testing.T) {
	payload := []byte(`{"type":"comment","unique_id":"alice","comment":"hello chat","avatar_url":"https://cdn.example.com/a.png"}`)

	event, ok := decodeFrame(payload)
	require.True(t, ok)

	comment, ok := event.(domain.CommentEvent)
	require.True(t, ok)
	assert.Equal(t, "alice", comment.ViewerID)
	assert.Equal(t, "hello chat", comment.Text)
	assert.Equal(t, "https://cdn.example.com/a.png", comment.AvatarURL)
}

func TestDecodeFrame_Gift(t *testing.T) {
	payload := []byte(`{"type":"gift","unique_id":"bob","diamond_count":5,"repeat_count":3,"streakable":true,"streak_end":true}`)

	event, ok := decodeFrame(payload)
	require.True(t, ok)

	gift, ok := event.(domain.GiftEvent)
	require.True(t, ok)
	assert.Equal(t, "bob", gift.ViewerID)
	assert.Equal(t, int64(5), gift.DiamondCount)
	assert.Equal(t, int64(3), gift.RepeatCount)
	assert.True(t, gift.Streakable)
	assert.True(t, gift.StreakEnd)
}

// newRelayServer upgrades every request to a websocket, writes count
// comment frames, then keeps the connection open until the test ends.
func newRelayServer(t *testing.T, count int) *httptest.Server {
	t.Helper()

	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for range count {
			fr := frame{Type: "comment", UniqueID: "viewer", Comment: "hello"}
			if err := conn.WriteJSON(fr); err != nil {
				return
			}
		}
		<-hold
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestRelayFeed_OpenDeliversEvents(t *testing.T) {
	srv := newRelayServer(t, 3)
	feed := NewRelayFeed(strings.Replace(srv.URL, "http://", "ws://", 1))

	stream, err := feed.Open(context.Background(), "streamer1")
	require.NoError(t, err)
	defer stream.Close()

	for range 3 {
		select {
		case event := <-stream.Events():
			assert.Equal(t, "viewer", event.Viewer())
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for relay event")
		}
	}
}

func TestRelayStream_CloseUnblocksFullBuffer(t *testing.T) {
	// Write far more frames than the event buffer holds and never read
	// them, so the read loop is parked on a channel send when Close runs.
	srv := newRelayServer(t, eventBufferSize*2)
	feed := NewRelayFeed(strings.Replace(srv.URL, "http://", "ws://", 1))

	stream, err := feed.Open(context.Background(), "streamer1")
	require.NoError(t, err)

	// Let the relay outpace the (absent) consumer until the buffer fills.
	require.Eventually(t, func() bool {
		return len(stream.(*relayStream).events) == eventBufferSize
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, stream.Close())

	// The read loop must exit and close the event channel even though
	// nothing drained the buffered events before Close.
	drained := make(chan struct{})
	go func() {
		for range stream.Events() {
		}
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit after Close with a full buffer")
	}
}

func TestDecodeFrame_SkipsUnusableFrames(t *testing.T) {
	cases := map[string][]byte{
		"malformed json":   []byte(`{"type":"comment"`),
		"unknown type":     []byte(`{"type":"follow","unique_id":"alice"}`),
		"missing uniqueID": []byte(`{"type":"comment","comment":"hi"}`),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := decodeFrame(payload)
			assert.False(t, ok)
		})
	}
}
