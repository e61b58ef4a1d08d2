package chat

import (
	"sync"
	"time"

	"tutorlink_chat_server/pkg/constants"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Identity 是鉴权通过后绑定到连接上的用户身份
type Identity struct {
	UserID      int64
	DisplayName string
	Role        string
}

// Conn 是一条已鉴权的 websocket 连接
// 发送统一走带缓冲的 send 通道，由写泵串行写出
type Conn struct {
	ID       string
	Identity Identity

	ws        *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func NewConn(ws *websocket.Conn, identity Identity) *Conn {
	return &Conn{
		ID:       uuid.NewString(),
		Identity: identity,
		ws:       ws,
		send:     make(chan []byte, constants.CHANNEL_SIZE),
		closed:   make(chan struct{}),
	}
}

// enqueue 非阻塞入队，通道满则丢弃并记日志
func (c *Conn) enqueue(data []byte) {
	select {
	case <-c.closed:
	case c.send <- data:
	default:
		zap.L().Warn("websocket 发送通道已满，消息被丢弃",
			zap.String("conn_id", c.ID), zap.Int64("user_id", c.Identity.UserID))
	}
}

// Close 幂等关闭底层连接并唤醒写泵
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// writePump 串行消费 send 通道，同时维持 ping 心跳
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				zap.L().Warn("websocket 写出失败", zap.String("conn_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
