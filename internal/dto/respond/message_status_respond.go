package respond

// MessageStatusRespond messageStatus（已读回执）事件的数据体
type MessageStatusRespond struct {
	ConversationId int64   `json:"conversationId"`
	ReaderId       int64   `json:"readerId"`
	MessageIds     []int64 `json:"messageIds,omitempty"`
	ReadAt         string  `json:"readAt"`
}
