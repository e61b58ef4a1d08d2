// Package handler 提供 HTTP 请求处理器
// 本文件处理在线状态查询的 API 请求
package handler

import (
	"context"
	"strconv"
	"time"

	"tutorlink_chat_server/internal/dao/mysql/repository"
	myredis "tutorlink_chat_server/internal/dao/redis"
	"tutorlink_chat_server/internal/dto/respond"
	"tutorlink_chat_server/pkg/constants"
	"tutorlink_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PresenceHandler 在线状态查询
type PresenceHandler struct {
	repo  repository.PresenceRepository
	cache myredis.CacheService
}

func NewPresenceHandler(repo repository.PresenceRepository, cache myredis.CacheService) *PresenceHandler {
	return &PresenceHandler{repo: repo, cache: cache}
}

// GetUserPresence 查询单个用户的在线状态
// GET /api/presence/:userId
// 从未连接过的用户返回离线且 lastSeen 为空
func (h *PresenceHandler) GetUserPresence(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "userId 无效"))
		return
	}

	record, err := h.repo.FindByUserID(userID)
	if err != nil {
		if errorx.IsNotFound(err) {
			HandleSuccess(c, respond.PresenceRespond{UserId: userID, IsOnline: false})
			return
		}
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.PresenceRespond{
		UserId:   record.UserID,
		IsOnline: record.IsOnline,
		LastSeen: record.LastSeen.Format(time.DateTime),
	})
}

// GetOnlineUsers 返回当前在线用户 ID 列表
// GET /api/presence/online
// 优先读 redis 在线集合，缓存不可用时回空列表并记日志
func (h *PresenceHandler) GetOnlineUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.REDIS_TIMEOUT*time.Minute)
	defer cancel()
	members, err := h.cache.GetSetMembers(ctx, "presence_online")
	if err != nil {
		zap.L().Warn("redis 在线集合读取失败", zap.Error(err))
		HandleSuccess(c, []int64{})
		return
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if id, perr := strconv.ParseInt(m, 10, 64); perr == nil {
			ids = append(ids, id)
		}
	}
	HandleSuccess(c, ids)
}
