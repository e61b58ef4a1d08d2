package respond

// ConversationRespond 会话解析结果的回传结构
type ConversationRespond struct {
	ConversationId int64  `json:"conversationId"`
	Kind           string `json:"kind"`
	Name           string `json:"name,omitempty"`
}
