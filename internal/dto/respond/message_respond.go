package respond

import "tutorlink_chat_server/internal/model"

// MessageRespond 消息的标准回传结构
// 作为发送 ack 的数据体，同时用于房间内 newMessage / newGroupMessage 事件，
// 以及 Kafka 导出流的消息体
type MessageRespond struct {
	Uuid           int64              `json:"uuid"`
	ConversationId int64              `json:"conversationId"`
	Kind           string             `json:"kind"`
	SenderId       int64              `json:"senderId"`
	SenderName     string             `json:"senderName"`
	Content        string             `json:"content"`
	Attachments    []model.Attachment `json:"attachments,omitempty"`
	SentAt         string             `json:"sentAt"`
}
