package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tutorlink_chat_server/internal/config"
	dao "tutorlink_chat_server/internal/dao/mysql"
	myredis "tutorlink_chat_server/internal/dao/redis"
	"tutorlink_chat_server/internal/handler"
	"tutorlink_chat_server/internal/https_server"
	"tutorlink_chat_server/internal/infrastructure/logger"
	"tutorlink_chat_server/internal/infrastructure/mq"
	"tutorlink_chat_server/internal/service/chat"
	"tutorlink_chat_server/internal/service/conversation"
	"tutorlink_chat_server/internal/service/message"
	"tutorlink_chat_server/internal/service/presence"
	"tutorlink_chat_server/pkg/util/jwt"
	"tutorlink_chat_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化 JWT 与雪花 ID
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	zap.L().Info("JWT 与雪花 ID 初始化成功")

	// 6. 初始化参数校验翻译器
	if err := handler.InitTrans(conf.MainConfig.GetLocale()); err != nil {
		zap.L().Fatal("校验翻译器初始化失败", zap.Error(err))
	}

	// 7. 组装服务（依赖注入）
	cache := myredis.GetCacheService()
	exporter := mq.NewKafkaExporter(&conf.KafkaConfig)

	registry := chat.NewRegistry()
	tracker := presence.NewTracker(dao.Repos.Presence, cache,
		conf.PresenceConfig.FlushInterval(), conf.PresenceConfig.OfflineGrace())
	reaper := presence.NewReaper(dao.Repos.Presence,
		conf.PresenceConfig.ReaperInterval(), conf.PresenceConfig.StaleAfter())
	resolver := conversation.NewResolver(dao.Repos)

	var msgExporter message.Exporter
	if exporter != nil {
		msgExporter = exporter
	}
	messages := message.NewService(dao.Repos, resolver, registry, cache, msgExporter)

	chatServer := chat.NewServer(registry, messages, resolver, tracker,
		conf.MainConfig.GetLocale(), conf.ChatConfig.AckTimeout())
	zap.L().Info("ChatServer 初始化成功")

	// 8. 启动兜底清理循环
	reaper.Start(context.Background())
	zap.L().Info("在线状态兜底清理已启动")

	// 9. 初始化并启动 HTTP 服务器
	handlers := handler.NewHandlers(chatServer.Gateway, dao.Repos.Presence, cache, messages)
	engine := https_server.Init(handlers)

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务器启动成功",
		zap.String("host", conf.MainConfig.Host), zap.Int("port", conf.MainConfig.Port))

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	reaper.Stop()
	tracker.Stop()
	chatServer.Close()
	if exporter != nil {
		exporter.Close()
	}
	zap.L().Info("服务器已关闭")
}
