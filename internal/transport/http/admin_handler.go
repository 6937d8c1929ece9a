package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gorilla/mux"
)

// AdminHandler exposes game control and read endpoints over HTTP.
type AdminHandler struct {
	service *app.GameService
	hub     *Hub
}

func NewAdminHandler(service *app.GameService, hub *Hub) *AdminHandler {
	return &AdminHandler{service: service, hub: hub}
}

func (h *AdminHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	started, err := h.service.Start(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"message":        "Game started",
		"sessionId":      started.SessionID,
		"totalQuestions": started.TotalQuestions,
	})
}

func (h *AdminHandler) ResetGame(w http.ResponseWriter, r *http.Request) {
	h.service.Reset(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Game reset",
		"status":  h.service.Status(),
	})
}

func (h *AdminHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Advance(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AdminHandler) ReloadQuestions(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.ReloadQuestions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "questionsLoaded": n})
}

func (h *AdminHandler) GameStatus(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"connections":  h.hub.Connections(),
		"participants": h.hub.Participants(),
	})
}

func (h *AdminHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// Results is the cross-session ranking of every player who answered. It
// defaults to 50 rows.
func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":      entries,
		"totalPlayers": len(entries),
	})
}

func (h *AdminHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.UserStats(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Session(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]errorPayload{"error": newErrorPayload(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoQuestionsAvailable), errors.Is(err, domain.ErrNoActiveQuestion):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingUser):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQuestionLoad):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
