package model

import "strconv"

// 房间是广播域的逻辑标识，不落库
// user:<id> 为用户私有房间，conv:<id> 为会话房间

func UserRoomID(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

func ConversationRoomID(conversationID int64) string {
	return "conv:" + strconv.FormatInt(conversationID, 10)
}
