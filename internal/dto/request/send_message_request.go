package request

import "tutorlink_chat_server/internal/model"

// SendMessageRequest 单聊即时发送请求
// 不要求调用方预先知道会话 ID，由服务端按 (发送者, 接收者) 解析或创建会话
type SendMessageRequest struct {
	RecipientId int64              `json:"recipientId"`
	Content     string             `json:"content" validate:"required"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}
