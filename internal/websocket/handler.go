package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"projecthub-chat/internal/auth"
	"projecthub-chat/internal/events"
	"projecthub-chat/internal/transport/httpdto"
	"projecthub-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// AccessGate decides whether a user may follow a project's room.
type AccessGate interface {
	CanAccess(ctx context.Context, projectID, userID uuid.UUID) error
}

// controlFrame is the inbound subscription protocol.
type controlFrame struct {
	Action    string    `json:"action"` // "subscribe" or "unsubscribe"
	ProjectID uuid.UUID `json:"project_id"`
}

type Handler struct {
	verifier *auth.TokenVerifier
	gate     AccessGate
	hub      *Hub
	log      *logger.Logger
}

func NewHandler(verifier *auth.TokenVerifier, gate AccessGate, hub *Hub, log *logger.Logger) *Handler {
	return &Handler{verifier: verifier, gate: gate, hub: hub, log: log}
}

// Connect upgrades the request and serves the subscription protocol until the
// peer disconnects. Browsers cannot set headers on websocket dials, so the
// token arrives as a query parameter.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	userID, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		h.handleFrame(c.Request.Context(), client, payload)
	}

	h.hub.Unregister(client)
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, payload []byte) {
	var frame controlFrame
	if err := json.Unmarshal(payload, &frame); err != nil || frame.ProjectID == uuid.Nil {
		return
	}

	channel := events.RoomChannel(frame.ProjectID)
	switch frame.Action {
	case "subscribe":
		if err := h.gate.CanAccess(ctx, frame.ProjectID, client.UserID); err != nil {
			h.log.Logger.Warn("room subscription denied",
				zap.String("userId", client.UserID.String()),
				zap.String("projectId", frame.ProjectID.String()))
			return
		}
		h.hub.Subscribe(client, channel)
	case "unsubscribe":
		h.hub.Unsubscribe(client, channel)
	}
}
