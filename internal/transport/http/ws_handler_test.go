package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	service, hub := newTestService(sampleQuestions())
	server := httptest.NewServer(NewRouter(service, hub))
	defer server.Close()

	conn := dial(t, server, "u1", "Alice")
	defer conn.Close()

	// Snapshot first: idle game.
	var status domain.GameStatus
	readPayload(t, conn, app.EventGameStatus, &status)
	if status.IsActive {
		t.Fatalf("expected idle game, got %+v", status)
	}

	resp, err := http.Post(server.URL+"/admin/start-game", "application/json", nil)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", resp.StatusCode)
	}

	var question domain.QuestionView
	readPayload(t, conn, app.EventNewQuestion, &question)
	if question.ID != "1" || question.QuestionNumber != 1 || question.TotalQuestions != 2 {
		t.Fatalf("unexpected question: %+v", question)
	}

	// The broadcast goes out before the direct reply.
	send(t, conn, "submitAnswer", map[string]any{"answer": "option_b"})
	var board domain.LeaderboardUpdate
	readPayload(t, conn, app.EventLeaderboardUpdate, &board)
	if len(board.Entries) != 1 || board.Entries[0].DisplayName != "Alice" {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	var result domain.AnswerResult
	readPayload(t, conn, EventAnswerResult, &result)
	if !result.Correct || result.Points != 15 || !result.Bonus {
		t.Fatalf("expected 15 point bonus answer, got %+v", result)
	}

	send(t, conn, "submitAnswer", map[string]any{"answer": "A"})
	var failure errorPayload
	readPayload(t, conn, EventError, &failure)
	if failure.Code != "duplicate_answer" {
		t.Fatalf("expected duplicate_answer, got %+v", failure)
	}

	send(t, conn, "nextQuestion", nil)
	var closed domain.QuestionClosed
	readPayload(t, conn, app.EventQuestionClosed, &closed)
	if closed.CorrectAnswerSlot != domain.SlotB || closed.CorrectAnswerText != "4" {
		t.Fatalf("unexpected reveal: %+v", closed)
	}
}

func TestWebSocketLateJoinerSeesLiveQuestion(t *testing.T) {
	service, hub := newTestService(sampleQuestions())
	server := httptest.NewServer(NewRouter(service, hub))
	defer server.Close()

	if _, err := service.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return service.Status().AcceptingAnswers })

	conn := dial(t, server, "u2", "Bob")
	defer conn.Close()

	var status domain.GameStatus
	readPayload(t, conn, app.EventGameStatus, &status)
	if !status.IsActive || !status.AcceptingAnswers || status.CurrentIndex != 0 {
		t.Fatalf("expected live question in status, got %+v", status)
	}
	var question domain.QuestionView
	readPayload(t, conn, app.EventNewQuestion, &question)
	if question.ID != "1" || question.Time <= 0 || question.Time > 30 {
		t.Fatalf("unexpected live question: %+v", question)
	}
}

func TestWebSocketErrors(t *testing.T) {
	service, hub := newTestService(nil)
	server := httptest.NewServer(NewRouter(service, hub))
	defer server.Close()

	conn := dial(t, server, "", "")
	defer conn.Close()
	readPayload(t, conn, app.EventGameStatus, &domain.GameStatus{})

	send(t, conn, "submitAnswer", map[string]any{"userId": "u1", "answer": "A"})
	var failure errorPayload
	readPayload(t, conn, EventError, &failure)
	if failure.Code != "no_active_question" {
		t.Fatalf("expected no_active_question, got %+v", failure)
	}
	if hub.Participants() != 1 {
		t.Fatalf("expected payload user to identify the connection, got %d participants", hub.Participants())
	}

	send(t, conn, "adminStartGame", nil)
	var gameErr errorPayload
	readPayload(t, conn, EventGameError, &gameErr)
	if gameErr.Code != "no_questions_available" {
		t.Fatalf("expected no_questions_available, got %+v", gameErr)
	}

	send(t, conn, "dance", nil)
	readPayload(t, conn, EventError, &failure)
	if failure.Code != "invalid_request" {
		t.Fatalf("expected invalid_request, got %+v", failure)
	}
}

func newTestService(questions []domain.Question) (*app.GameService, *Hub) {
	hub := NewHub(16)
	settings := app.DefaultSettings()
	settings.LeadIn = 0
	service := app.NewGameService(memory.NewStaticQuestionLoader(questions), memory.NewScoreStore(), hub, settings)
	service.SetSessionRegistry(memory.NewSessionRegistry())
	return service, hub
}

func dial(t *testing.T, server *httptest.Server, userID, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?userId=" + userID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readPayload skips frames until one of type expect arrives and decodes its payload into out.
func readPayload(t *testing.T, conn *websocket.Conn, expect string, out any) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", expect, err)
		}
		if msg.Type != expect {
			continue
		}
		if err := json.Unmarshal(msg.Payload, out); err != nil {
			t.Fatalf("decode %s: %v", expect, err)
		}
		return
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:         "1",
			Text:       "What is 2 + 2?",
			Options:    domain.Options{A: "3", B: "4", C: "5", D: "22"},
			Correct:    domain.SlotB,
			Difficulty: "Easy",
		},
		{
			ID:      "2",
			Text:    "Capital of France?",
			Options: domain.Options{A: "Paris", B: "Rome", C: "Berlin", D: "Madrid"},
			Correct: domain.SlotA,
		},
	}
}
