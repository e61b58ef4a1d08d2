package request

// MarkReadRequest 已读标记请求
// conversationId 用于清零调用方在该会话的未读计数，
// messageIds 用于标记具体消息已读，二者可单独或同时携带
type MarkReadRequest struct {
	ConversationId int64   `json:"conversationId,omitempty"`
	MessageIds     []int64 `json:"messageIds,omitempty"`
}
