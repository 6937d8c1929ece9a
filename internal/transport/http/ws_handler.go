package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Outbound event names that only the transport sends.
const (
	EventAnswerResult = "answerResult"
	EventError        = "error"
	EventGameError    = "gameError"
)

type WSHandler struct {
	service  *app.GameService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Answer      string `json:"answer"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorPayload(err error) errorPayload {
	return errorPayload{Code: domain.ErrorCode(err), Message: err.Error()}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game loop.
// userId and name are optional; a submitAnswer payload can carry the user instead.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	c := h.hub.register(connID, userID)
	log.Printf("connection %s opened (user=%q)", connID, userID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(conn, c)
	}()

	h.sendSnapshot(connID)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error on %s: %v", connID, err)
			}
			break
		}
		h.dispatch(r, connID, &userID, &displayName, inbound)
	}

	h.hub.unregister(connID)
	<-writerDone
	log.Printf("connection %s closed", connID)
}

func (h *WSHandler) dispatch(r *http.Request, connID string, userID, displayName *string, inbound inboundMessage) {
	ctx := r.Context()
	switch inbound.Type {
	case "submitAnswer":
		var payload answerPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.hub.EmitToOne(connID, EventError, errorPayload{Code: "invalid_request", Message: "invalid answer payload"})
				return
			}
		}
		if payload.UserID == "" {
			payload.UserID = *userID
		} else if *userID == "" {
			*userID = payload.UserID
			h.hub.identify(connID, payload.UserID)
		}
		if payload.DisplayName == "" {
			payload.DisplayName = *displayName
		}
		result, err := h.service.SubmitAnswer(ctx, payload.UserID, payload.DisplayName, payload.Answer)
		if err != nil {
			h.hub.EmitToOne(connID, EventError, newErrorPayload(err))
			return
		}
		h.hub.EmitToOne(connID, EventAnswerResult, result)
	case "getGameStatus":
		h.hub.EmitToOne(connID, app.EventGameStatus, h.service.Status())
	case "nextQuestion":
		if err := h.service.Advance(ctx); err != nil {
			h.hub.EmitToOne(connID, EventError, newErrorPayload(err))
		}
	case "adminStartGame":
		if _, err := h.service.Start(ctx); err != nil {
			log.Printf("start game from %s: %v", connID, err)
			h.hub.EmitToOne(connID, EventGameError, newErrorPayload(err))
		}
	default:
		h.hub.EmitToOne(connID, EventError, errorPayload{Code: "invalid_request", Message: "unsupported message type"})
	}
}

// sendSnapshot brings a newly connected client up to date, including the live
// question when one is open.
func (h *WSHandler) sendSnapshot(connID string) {
	status, view := h.service.Snapshot()
	h.hub.EmitToOne(connID, app.EventGameStatus, status)
	if view != nil {
		h.hub.EmitToOne(connID, app.EventNewQuestion, view)
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("ws write error on %s: %v", c.id, err)
				// unblock the reader
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
