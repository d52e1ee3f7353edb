package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/safework/backend/internal/infrastructure/event"
	"github.com/safework/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// StreamHandler upgrades authenticated clients to a websocket that
// receives hazard lifecycle events.
type StreamHandler struct {
	BaseHandler
	broadcaster *event.Broadcaster
	sessionMW   gin.HandlerFunc
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewStreamHandler creates a new stream handler. allowedOrigins uses
// the same whitelist semantics as the CORS middleware; an empty list
// restricts upgrades to same-origin requests.
func NewStreamHandler(broadcaster *event.Broadcaster, sessionMW gin.HandlerFunc, allowedOrigins []string, logger *zap.Logger) *StreamHandler {
	allowAll := false
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = struct{}{}
	}

	return &StreamHandler{
		broadcaster: broadcaster,
		sessionMW:   sessionMW,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowAll {
					return true
				}
				if _, ok := originSet[origin]; ok {
					return true
				}
				return origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
		logger: logger,
	}
}

// RegisterRoutes registers the stream endpoint on the API group
func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stream", h.sessionMW, h.Connect)
}

// Connect upgrades the request and keeps the connection registered
// with the broadcaster until the client goes away.
func (h *StreamHandler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn("Stream upgrade failed", zap.Error(err))
		return
	}

	client, err := h.broadcaster.Register(conn, middleware.GetSessionAccountID(c).String())
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	defer h.broadcaster.Unregister(client)

	// Drain the connection. Clients don't send application messages;
	// reading surfaces pings and close frames.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.broadcaster.Unregister(client)
				return
			}
		}
	}()

	<-client.Done()
	_ = conn.Close()
}
