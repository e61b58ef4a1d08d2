package request

// TypingRequest 输入状态通知，转发给房间内其他成员，不落库
type TypingRequest struct {
	RoomId   string `json:"roomId" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}
