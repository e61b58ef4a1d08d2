package request

import "tutorlink_chat_server/internal/model"

// SendGroupMessageRequest 群聊发送请求，会话必须已存在
type SendGroupMessageRequest struct {
	ConversationId int64              `json:"conversationId" validate:"gt=0"`
	Content        string             `json:"content" validate:"required"`
	Attachments    []model.Attachment `json:"attachments,omitempty"`
}
