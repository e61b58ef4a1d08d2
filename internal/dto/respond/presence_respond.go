package respond

// PresenceRespond 在线状态查询的回传结构
type PresenceRespond struct {
	UserId   int64  `json:"userId"`
	IsOnline bool   `json:"isOnline"`
	LastSeen string `json:"lastSeen"`
}
