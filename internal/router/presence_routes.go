package router

import (
	"tutorlink_chat_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerPresenceRoutes 注册在线状态查询路由
func (r *Router) registerPresenceRoutes(engine *gin.Engine) {
	group := engine.Group("/api/presence", middleware.JWTAuth())
	{
		group.GET("/online", r.handlers.Presence.GetOnlineUsers)
		group.GET("/:userId", r.handlers.Presence.GetUserPresence)
	}
}
