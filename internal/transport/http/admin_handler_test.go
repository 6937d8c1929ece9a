package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"classroom-quiz-service/internal/domain"
)

func TestAdminEndpoints(t *testing.T) {
	service, hub := newTestService(sampleQuestions())
	router := NewRouter(service, hub)

	rec := do(router, http.MethodPost, "/admin/next-question")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 advancing an idle game, got %d", rec.Code)
	}
	var failure map[string]errorPayload
	_ = json.Unmarshal(rec.Body.Bytes(), &failure)
	if failure["error"].Code != "no_active_question" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}

	rec = do(router, http.MethodPost, "/admin/reload-questions")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on reload, got %d", rec.Code)
	}
	var reloaded struct {
		QuestionsLoaded int `json:"questionsLoaded"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &reloaded)
	if reloaded.QuestionsLoaded != 2 {
		t.Fatalf("expected 2 questions loaded, got %d", reloaded.QuestionsLoaded)
	}

	rec = do(router, http.MethodPost, "/admin/start-game")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", rec.Code)
	}
	var started struct {
		SessionID      string `json:"sessionId"`
		TotalQuestions int    `json:"totalQuestions"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &started)
	if started.SessionID == "" || started.TotalQuestions != 2 {
		t.Fatalf("unexpected start body: %s", rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/sessions/"+started.SessionID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected session record, got %d", rec.Code)
	}
	var record domain.SessionRecord
	_ = json.Unmarshal(rec.Body.Bytes(), &record)
	if record.Status != domain.SessionStatusStarted {
		t.Fatalf("unexpected session record: %+v", record)
	}

	rec = do(router, http.MethodPost, "/admin/reset-game")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d", rec.Code)
	}
	if service.Status().IsActive {
		t.Fatalf("expected inactive game after reset")
	}

	rec = do(router, http.MethodGet, "/game/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on status, got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/leaderboard?limit=5")
	var board struct {
		Entries []domain.LeaderboardEntry `json:"entries"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &board)
	if rec.Code != http.StatusOK || board.Entries == nil {
		t.Fatalf("expected empty leaderboard list, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/sessions/unknown")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestAdminStartWithoutQuestions(t *testing.T) {
	service, hub := newTestService(nil)
	rec := do(NewRouter(service, hub), http.MethodPost, "/admin/start-game")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestUserStatsAndResults(t *testing.T) {
	service, hub := newTestService(sampleQuestions())
	router := NewRouter(service, hub)
	ctx := context.Background()

	if _, err := service.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return service.Status().AcceptingAnswers })
	if _, err := service.SubmitAnswer(ctx, "u1", "Alice", "option_b"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer service.Reset(ctx)

	rec := do(router, http.MethodGet, "/users/u1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for user stats, got %d %s", rec.Code, rec.Body.String())
	}
	var stats domain.UserStats
	_ = json.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.DisplayName != "Alice" || stats.Score != 15 || stats.Attempts != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if easy := stats.ByDifficulty["easy"]; easy.Answered != 1 || easy.Correct != 1 {
		t.Fatalf("expected easy breakdown, got %+v", stats.ByDifficulty)
	}
	if len(stats.RecentSessions) != 1 || stats.RecentSessions[0].SessionID != service.Status().SessionID {
		t.Fatalf("expected current session in history, got %+v", stats.RecentSessions)
	}

	rec = do(router, http.MethodGet, "/users/nobody/stats")
	var failure map[string]errorPayload
	_ = json.Unmarshal(rec.Body.Bytes(), &failure)
	if rec.Code != http.StatusNotFound || failure["error"].Code != "user_not_found" {
		t.Fatalf("expected 404 user_not_found, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/results")
	var results struct {
		Results      []domain.LeaderboardEntry `json:"results"`
		TotalPlayers int                       `json:"totalPlayers"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &results)
	if rec.Code != http.StatusOK || results.TotalPlayers != 1 || results.Results[0].UserID != "u1" {
		t.Fatalf("unexpected results: %d %s", rec.Code, rec.Body.String())
	}
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}
