package http

import (
	"net/http"
	"time"

	"odyssey-quiz-service/internal/app"
	"odyssey-quiz-service/internal/domain"
	"odyssey-quiz-service/internal/logger"
)

// LeaderboardHandler serves the ranked top list, tier metadata, and
// historical snapshots.
type LeaderboardHandler struct {
	top    TopSource
	ledger *app.Ledger
	log    *logger.Logger
}

func (h *LeaderboardHandler) Top(w http.ResponseWriter, r *http.Request) {
	entries, err := h.top.Top(r.Context(), app.LeaderboardSize)
	if err != nil {
		h.log.Error("leaderboard lookup failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "leaderboard lookup failed")
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *LeaderboardHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Tiers())
}

// History returns the leaderboard snapshot for a date. Empty list when no
// snapshot exists; nothing writes snapshots yet.
func (h *LeaderboardHandler) History(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date query parameter required")
		return
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	snapshots, err := h.ledger.SnapshotsFor(r.Context(), date)
	if err != nil {
		h.log.Error("snapshot lookup failed", "date", date, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "snapshot lookup failed")
		return
	}
	if snapshots == nil {
		snapshots = []domain.LeaderboardSnapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}
