package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/internal/pkg/pubsub"
	"github.com/qs3c/photoshoot_server/internal/pkg/response"
	"github.com/qs3c/photoshoot_server/internal/pkg/ws"
	"github.com/qs3c/photoshoot_server/internal/service"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	resolver service.IdentityResolver
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler allowedOrigins 为空或包含 "*" 时不校验 Origin
func NewWebSocketHandler(hub *ws.Hub, resolver service.IdentityResolver, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// Handle 建立连接后推送该账户的生成记录转存结果
// GET /api/v1/ws?token=xxx
func (h *WebSocketHandler) Handle(c *gin.Context) {
	identity, err := h.resolver.Resolve(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.AuthError(c, "认证失败或已过期")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}

	client := &ws.Client{
		OwnerID: identity.UID,
		Conn:    conn,
	}
	h.hub.Register(client)

	// 只读取以检测断开
	go func() {
		defer h.hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Forward 将 Redis 订阅到的事件转发给在线连接
func (h *WebSocketHandler) Forward(event *pubsub.ShootEvent) {
	if !h.hub.IsOnline(event.OwnerID) {
		return
	}
	if err := h.hub.SendToOwner(event.OwnerID, &ws.Message{Type: event.Type, Data: event}); err != nil {
		h.logger.Warn("failed to push event",
			zap.String("owner_id", event.OwnerID),
			zap.String("shoot_id", event.ShootID),
			zap.Error(err))
	}
}
