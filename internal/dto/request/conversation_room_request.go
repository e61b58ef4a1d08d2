package request

// ConversationRoomRequest 加入/离开会话房间请求
type ConversationRoomRequest struct {
	ConversationId int64 `json:"conversationId" validate:"gt=0"`
}
