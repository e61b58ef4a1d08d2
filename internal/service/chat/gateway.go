package chat

import (
	"net/http"
	"time"

	"tutorlink_chat_server/internal/model"
	"tutorlink_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Gateway 负责 websocket 接入
// 在协议升级前完成 JWT 鉴权，失败的请求不会进入任何房间
type Gateway struct {
	registry   *Registry
	dispatcher *Dispatcher
	presence   PresenceSink
	upgrader   websocket.Upgrader
}

func NewGateway(registry *Registry, dispatcher *Dispatcher, presence PresenceSink) *Gateway {
	return &Gateway{
		registry:   registry,
		dispatcher: dispatcher,
		presence:   presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleConnection 处理一次 ws 接入请求
// 鉴权通过后绑定身份、自动加入私有房间并上报上线信号
func (g *Gateway) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "msg": "缺少 token"})
		return
	}
	claims, err := jwt.ParseToken(token)
	if err != nil {
		zap.L().Warn("websocket 鉴权失败", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "msg": "token 无效或已过期"})
		return
	}

	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket 升级失败", zap.Error(err))
		return
	}

	conn := NewConn(ws, Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
	})
	g.registry.AddConn(conn)
	g.registry.Join(conn.ID, model.UserRoomID(claims.UserID))
	g.presence.RecordConnect(claims.UserID)
	zap.L().Info("websocket 连接建立",
		zap.String("conn_id", conn.ID), zap.Int64("user_id", claims.UserID))

	go conn.writePump()
	g.readPump(conn)
}

// readPump 串行读取上行帧直到连接关闭，退出时做全量清理
func (g *Gateway) readPump(conn *Conn) {
	defer func() {
		g.registry.RemoveConn(conn.ID)
		conn.Close()
		g.presence.RecordDisconnect(conn.Identity.UserID)
		zap.L().Info("websocket 连接关闭",
			zap.String("conn_id", conn.ID), zap.Int64("user_id", conn.Identity.UserID))
	}()

	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("websocket 读取异常", zap.String("conn_id", conn.ID), zap.Error(err))
			}
			return
		}
		g.dispatcher.Dispatch(conn, raw)
	}
}
