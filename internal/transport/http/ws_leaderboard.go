package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"quizhost-service/internal/app"
	"quizhost-service/internal/domain"
)

// LeaderboardHub pushes leaderboard re-projections to websocket clients.
// The projector is recomputed per broadcast; the hub holds subscriptions
// only, no ranking state.
type LeaderboardHub struct {
	projector *app.Leaderboard
	upgrader  websocket.Upgrader
	log       *logrus.Logger

	mu          sync.Mutex
	subscribers map[string]map[chan []domain.LeaderboardEntry]struct{}
}

func NewLeaderboardHub(projector *app.Leaderboard, log *logrus.Logger) *LeaderboardHub {
	return &LeaderboardHub{
		projector: projector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:         log,
		subscribers: make(map[string]map[chan []domain.LeaderboardEntry]struct{}),
	}
}

// Broadcast recomputes the ranking for a quiz and fans it out. Slow clients
// have their stale update dropped rather than blocking the broadcast.
func (h *LeaderboardHub) Broadcast(ctx context.Context, quizID string) {
	h.mu.Lock()
	subs := h.subscribers[quizID]
	if len(subs) == 0 {
		h.mu.Unlock()
		return
	}
	channels := make([]chan []domain.LeaderboardEntry, 0, len(subs))
	for ch := range subs {
		channels = append(channels, ch)
	}
	h.mu.Unlock()

	entries, err := h.projector.Rank(ctx, quizID)
	if err != nil {
		h.log.WithError(err).WithField("quizId", quizID).Warn("leaderboard broadcast skipped")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range channels {
		if _, live := h.subscribers[quizID][ch]; !live {
			continue
		}
		select {
		case ch <- entries:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- entries
		}
	}
}

func (h *LeaderboardHub) subscribe(quizID string) (chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[quizID]
	if !ok {
		subs = make(map[chan []domain.LeaderboardEntry]struct{})
		h.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs, ok := h.subscribers[quizID]; ok {
			if _, live := subs[ch]; live {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(h.subscribers, quizID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// ServeWS upgrades the connection and streams the quiz leaderboard: one
// snapshot on connect, then one message per submission.
func (h *LeaderboardHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := mux.Vars(r)["id"]
	if quizID == "" {
		http.Error(w, "missing quiz id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	snapshot, err := h.projector.Rank(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}

	updates, cancel := h.subscribe(quizID)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
		for entries := range updates {
			if err := conn.WriteJSON(entries); err != nil {
				return
			}
		}
	}()

	// Read loop exists only to observe the peer closing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writerDone
}
