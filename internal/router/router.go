// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"net/http"

	"tutorlink_chat_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// Router 持有 Handler 聚合，负责把路由挂到引擎上
type Router struct {
	handlers *handler.Handlers
}

func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (r *Router) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.registerWebSocketRoutes(engine)
	r.registerPresenceRoutes(engine)
	r.registerMessageRoutes(engine)
}
