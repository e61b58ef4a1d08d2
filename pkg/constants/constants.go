package constants

import "time"

const (
	CHANNEL_SIZE  = 100 // 连接发送通道大小
	REDIS_TIMEOUT = 1   // redis timeout (分钟)

	// 在线状态相关的默认值，可被配置覆盖
	PRESENCE_FLUSH_INTERVAL = 60 * time.Second      // 活跃时间落库节流窗口
	PRESENCE_OFFLINE_GRACE  = 30 * time.Second      // 断连后的离线宽限期
	REAPER_INTERVAL         = 2 * time.Minute       // 兜底清理任务执行间隔
	REAPER_STALE_THRESHOLD  = 5 * time.Minute       // 判定在线状态过期的阈值
	ACK_TIMEOUT             = 10 * time.Second      // ack 响应超时
)
