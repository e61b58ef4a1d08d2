// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"tutorlink_chat_server/internal/dao/mysql/repository"
	myredis "tutorlink_chat_server/internal/dao/redis"
	"tutorlink_chat_server/internal/service/chat"
	"tutorlink_chat_server/internal/service/message"
)

// Handlers 聚合所有 Handler 实例
// 作为依赖注入的入口，Router 层通过此结构访问各个 Handler
type Handlers struct {
	Ws       *WsHandler
	Presence *PresenceHandler
	Message  *MessageHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(gateway *chat.Gateway, presenceRepo repository.PresenceRepository, cache myredis.CacheService, messages *message.Service) *Handlers {
	return &Handlers{
		Ws:       NewWsHandler(gateway),
		Presence: NewPresenceHandler(presenceRepo, cache),
		Message:  NewMessageHandler(messages),
	}
}
