// Package handler 提供 HTTP 请求处理器
package handler

import (
	"tutorlink_chat_server/internal/service/chat"

	"github.com/gin-gonic/gin"
)

// WsHandler 处理 WebSocket 接入请求
type WsHandler struct {
	gateway *chat.Gateway
}

func NewWsHandler(gateway *chat.Gateway) *WsHandler {
	return &WsHandler{gateway: gateway}
}

// Connect WebSocket 接入
// GET /ws?token=xxx
// 鉴权在协议升级前完成，token 无效直接返回 401
func (h *WsHandler) Connect(c *gin.Context) {
	h.gateway.HandleConnection(c)
}
