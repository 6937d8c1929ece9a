package http

import (
	"net/http"

	"classroom-quiz-service/internal/app"
	"github.com/gorilla/mux"
)

// NewRouter wires the websocket endpoint and the admin API.
func NewRouter(service *app.GameService, hub *Hub) http.Handler {
	r := mux.NewRouter()
	ws := NewWSHandler(service, hub)
	admin := NewAdminHandler(service, hub)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)

	r.HandleFunc("/game/status", admin.GameStatus).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", admin.Leaderboard).Methods(http.MethodGet)
	r.HandleFunc("/results", admin.Results).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}", admin.Session).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/stats", admin.UserStats).Methods(http.MethodGet)

	adminRoutes := r.PathPrefix("/admin").Subrouter()
	adminRoutes.HandleFunc("/start-game", admin.StartGame).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/reset-game", admin.ResetGame).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/next-question", admin.NextQuestion).Methods(http.MethodPost)
	adminRoutes.HandleFunc("/reload-questions", admin.ReloadQuestions).Methods(http.MethodPost)
	return r
}
