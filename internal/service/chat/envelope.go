package chat

import "encoding/json"

// ==== 客户端动作 ====

const (
	ActionJoinUserRoom          = "joinUserRoom"
	ActionJoinConversationRoom  = "joinConversationRoom"
	ActionLeaveConversationRoom = "leaveConversationRoom"
	ActionJoinSessionChat       = "joinSessionChat"
	ActionSendMessage           = "sendMessage"
	ActionSendGroupMessage      = "sendGroupMessage"
	ActionTyping                = "typing"
	ActionMarkRead              = "markRead"
	ActionActivityPing          = "activityPing"
)

// ==== 服务端事件 ====

const (
	EventAck             = "ack"
	EventNewMessage      = "newMessage"
	EventNewGroupMessage = "newGroupMessage"
	EventUserTyping      = "userTyping"
	EventMessageStatus   = "messageStatus"
)

// ClientEnvelope 是客户端上行帧的统一外壳
// ackId 由客户端生成，携带时服务端保证回发一条同 ackId 的 ack
type ClientEnvelope struct {
	Action string          `json:"action"`
	AckID  string          `json:"ackId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ServerEnvelope 是服务端下行帧的统一外壳
// 房间事件只填 Event 和 Data，ack 帧额外携带 AckID 与业务码
type ServerEnvelope struct {
	Event string `json:"event"`
	AckID string `json:"ackId,omitempty"`
	Code  int    `json:"code,omitempty"`
	Msg   string `json:"msg,omitempty"`
	Data  any    `json:"data,omitempty"`
}
