package chat

import "time"

// Server 聚合聊天子系统的各组件，统一创建与关闭
type Server struct {
	Registry   *Registry
	Dispatcher *Dispatcher
	Gateway    *Gateway
}

// NewServer 基于外部已创建的 Registry 组装分发器与网关
// Registry 先于消息服务创建，消息服务把它当作房间广播出口
func NewServer(registry *Registry, messages MessageService, conversations ConversationService, presence PresenceSink, locale string, ackTimeout time.Duration) *Server {
	dispatcher := NewDispatcher(registry, messages, conversations, presence, locale, ackTimeout)
	return &Server{
		Registry:   registry,
		Dispatcher: dispatcher,
		Gateway:    NewGateway(registry, dispatcher, presence),
	}
}

// Close 关闭全部在线连接
func (s *Server) Close() {
	s.Registry.CloseAll()
}
