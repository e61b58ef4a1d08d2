package request

// JoinUserRoomRequest 加入私有房间请求
// userId 必须是连接自身的身份，服务端会校验
type JoinUserRoomRequest struct {
	UserId int64 `json:"userId" validate:"gt=0"`
}
