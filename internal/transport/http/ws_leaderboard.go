package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// LeaderboardWSHandler streams leaderboard updates to connected clients. The
// connection is push only; inbound messages are read and discarded so pings
// and close frames are still processed.
type LeaderboardWSHandler struct {
	feed     *app.Feed
	top      TopSource
	log      *logger.Logger
	upgrader websocket.Upgrader
}

type leaderboardMessage struct {
	Type    string                    `json:"type"`
	Payload []domain.LeaderboardEntry `json:"payload"`
}

func NewLeaderboardWSHandler(feed *app.Feed, top TopSource, log *logger.Logger) *LeaderboardWSHandler {
	return &LeaderboardWSHandler{
		feed: feed,
		top:  top,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *LeaderboardWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	updates, cancel := h.feed.Subscribe()
	defer cancel()

	send := make(chan leaderboardMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", "error", err.Error())
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- leaderboardMessage{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if entries, err := h.top.Top(r.Context(), app.LeaderboardSize); err == nil {
		send <- leaderboardMessage{Type: "leaderboard", Payload: entries}
	} else {
		h.log.Error("initial leaderboard load failed", "error", err.Error())
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
