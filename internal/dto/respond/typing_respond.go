package respond

// TypingRespond userTyping 事件的数据体
type TypingRespond struct {
	RoomId   string `json:"roomId"`
	UserId   int64  `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}
