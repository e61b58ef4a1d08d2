package router

import (
	"tutorlink_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerMessageRoutes 注册消息历史查询路由
func (r *Router) registerMessageRoutes(engine *gin.Engine) {
	group := engine.Group("/api/conversations", middleware.JWTAuth())
	{
		group.GET("/:conversationId/messages", r.handlers.Message.GetHistory)
	}
}
