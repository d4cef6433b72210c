package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"kazino-api/internal/feed"
	"kazino-api/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const feedWriteTimeout = 10 * time.Second

// FeedResponse is the recent-drops snapshot, newest first.
type FeedResponse struct {
	Events []model.FeedEvent `json:"events"`
}

// HandleFeed serves the current feed snapshot.
func HandleFeed(f *feed.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events := f.Snapshot()
		if events == nil {
			events = []model.FeedEvent{}
		}
		writeJSON(w, http.StatusOK, FeedResponse{Events: events})
	}
}

// HandleFeedWS upgrades to a websocket and streams feed events as they
// are published. The current snapshot is replayed first, oldest to
// newest, so the client starts with a full window.
func HandleFeedWS(f *feed.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}
		defer conn.Close()

		snapshot, events, cancel := f.SubscribeWithSnapshot()
		defer cancel()

		for i := len(snapshot) - 1; i >= 0; i-- {
			if err := writeEvent(conn, snapshot[i]); err != nil {
				return
			}
		}

		// Drain client frames so close and ping control messages are
		// processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeEvent(conn, ev); err != nil {
					return
				}
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev model.FeedEvent) error {
	conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return conn.WriteJSON(ev)
}
