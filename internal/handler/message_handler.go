// Package handler 提供 HTTP 请求处理器
// 本文件处理消息历史查询的 API 请求
package handler

import (
	"strconv"

	"tutorlink_chat_server/internal/service/message"
	"tutorlink_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息历史查询
type MessageHandler struct {
	svc *message.Service
}

func NewMessageHandler(svc *message.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// GetHistory 查询会话消息（时间升序）
// GET /api/conversations/:conversationId/messages
// 仅会话成员可读
func (h *MessageHandler) GetHistory(c *gin.Context) {
	conversationID, err := strconv.ParseInt(c.Param("conversationId"), 10, 64)
	if err != nil || conversationID <= 0 {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "conversationId 无效"))
		return
	}
	readerID := c.GetInt64("user_id")
	if readerID <= 0 {
		HandleError(c, errorx.ErrUnauthorized)
		return
	}

	list, err := h.svc.History(conversationID, readerID)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, list)
}
