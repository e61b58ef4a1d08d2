// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 服务器监听地址，如 "0.0.0.0"
	Port    int    `toml:"port"`    // 服务器监听端口，如 8000
	Locale  string `toml:"locale"`  // 校验错误提示语言，"zh" 或 "en"，默认 "zh"
}

// GetLocale 返回校验错误提示语言，空值回落到中文
func (c MainConfig) GetLocale() string {
	if c.Locale == "" {
		return "zh"
	}
	return c.Locale
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Password string `toml:"password"`
	Db       int    `toml:"db"`
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// KafkaConfig 消息导出流配置
// exportMode 为 "kafka" 时，落库成功的消息会同步发布到导出 topic，
// 供外部消费方（审核后台、搜索索引）订阅；"off" 则完全关闭
type KafkaConfig struct {
	ExportMode  string        `toml:"exportMode"`  // "off" 或 "kafka"
	HostPort    string        `toml:"hostPort"`    // Kafka 服务器地址，如 "localhost:9092"
	ExportTopic string        `toml:"exportTopic"` // 消息导出主题
	Timeout     time.Duration `toml:"timeout"`     // 写超时（秒）
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret             string `toml:"secret"`             // JWT 签名密钥，建议 32 字符以上
	AccessTokenExpiry  int    `toml:"accessTokenExpiry"`  // Access Token 有效期（分钟）
	RefreshTokenExpiry int    `toml:"refreshTokenExpiry"` // Refresh Token 有效期（小时）
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 节点 ID，范围 0-1023
}

// PresenceConfig 在线状态配置
// 节流/宽限/清扫参数均以秒为单位，0 表示使用默认值
type PresenceConfig struct {
	FlushIntervalSec  int `toml:"flushIntervalSec"`  // 活跃时间落库节流窗口，默认 60
	OfflineGraceSec   int `toml:"offlineGraceSec"`   // 断连离线宽限期，默认 30
	ReaperIntervalSec int `toml:"reaperIntervalSec"` // 兜底清理执行间隔，默认 120
	StaleAfterSec     int `toml:"staleAfterSec"`     // 在线记录过期阈值，默认 300
}

// ChatConfig 实时通道配置
type ChatConfig struct {
	AckTimeoutSec int `toml:"ackTimeoutSec"` // ack 响应超时（秒），默认 10
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	MysqlConfig     `toml:"mysqlConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
	PresenceConfig  `toml:"presenceConfig"`
	ChatConfig      `toml:"chatConfig"`
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
func LoadConfig() error {
	// 候选配置文件路径（优先加载本地配置）
	paths := []string{
		"configs/config_local.toml",
		"configs/config.toml",
		"../../configs/config_local.toml",
		"../../configs/config.toml",
	}

	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig() // 忽略加载错误，使用默认值
	}
	return config
}

// FlushInterval 活跃时间落库节流窗口
func (p PresenceConfig) FlushInterval() time.Duration {
	if p.FlushIntervalSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(p.FlushIntervalSec) * time.Second
}

// OfflineGrace 断连离线宽限期
func (p PresenceConfig) OfflineGrace() time.Duration {
	if p.OfflineGraceSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.OfflineGraceSec) * time.Second
}

// ReaperInterval 兜底清理执行间隔
func (p PresenceConfig) ReaperInterval() time.Duration {
	if p.ReaperIntervalSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(p.ReaperIntervalSec) * time.Second
}

// StaleAfter 在线记录过期阈值
func (p PresenceConfig) StaleAfter() time.Duration {
	if p.StaleAfterSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(p.StaleAfterSec) * time.Second
}

// AckTimeout ack 响应超时
func (c ChatConfig) AckTimeout() time.Duration {
	if c.AckTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.AckTimeoutSec) * time.Second
}
