package request

// JoinSessionChatRequest 加入辅导课群聊请求
// 服务端按课程解析（或初始化）群聊会话并把连接拉进会话房间
type JoinSessionChatRequest struct {
	SessionId int64 `json:"sessionId" validate:"gt=0"`
}
