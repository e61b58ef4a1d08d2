package router

import (
	"github.com/gin-gonic/gin"
)

// registerWebSocketRoutes 注册 WebSocket 接入路由
// 鉴权由网关在协议升级前完成，不走 JWT 中间件
func (r *Router) registerWebSocketRoutes(engine *gin.Engine) {
	engine.GET("/ws", r.handlers.Ws.Connect)
}
