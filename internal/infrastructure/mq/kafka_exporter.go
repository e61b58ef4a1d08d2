// Package mq 封装消息导出的 Kafka 基础设施
// 导出流是旁路：下游分析、审计等系统消费已持久化的消息副本，
// 导出失败不影响聊天主链路
package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"tutorlink_chat_server/internal/config"
	"tutorlink_chat_server/internal/dto/respond"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaExporter 把消息写入 Kafka 导出主题，key 取会话 ID 保证同会话有序
type KafkaExporter struct {
	producer *kafka.Writer
}

// NewKafkaExporter 按配置创建导出器
// exportMode 不为 "kafka" 时返回 nil，调用方据此跳过导出
func NewKafkaExporter(cfg *config.KafkaConfig) *KafkaExporter {
	if cfg == nil || cfg.ExportMode != "kafka" {
		return nil
	}
	return &KafkaExporter{
		producer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.HostPort),
			Topic:                  cfg.ExportTopic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           cfg.Timeout * time.Second,
			RequiredAcks:           kafka.RequireNone,
			AllowAutoTopicCreation: false,
		},
	}
}

// Export 写入一条已持久化的消息
func (e *KafkaExporter) Export(ctx context.Context, msg *respond.MessageRespond) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return e.producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.ConversationId, 10)),
		Value: value,
	})
}

// Close 关闭底层生产者
func (e *KafkaExporter) Close() {
	if err := e.producer.Close(); err != nil {
		zap.L().Error("kafka 导出器关闭失败", zap.Error(err))
	}
}
