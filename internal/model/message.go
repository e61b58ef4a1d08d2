// Package model 定义数据库实体模型
// 本文件定义消息模型，消息一经写入不可变更
package model

import (
	"encoding/json"
	"time"
)

// Attachment 附件描述符
// 文件本体由平台的上传模块管理，这里只保留引用信息，
// 序列化后存入 Message.Metadata
type Attachment struct {
	Name     string `json:"name"`               // 文件名
	Url      string `json:"url"`                // 访问链接
	FileType string `json:"fileType,omitempty"` // MIME 类型
	Size     int64  `json:"size,omitempty"`     // 字节数
}

// Message 消息模型
// 对应数据库 message 表
type Message struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedAt time.Time

	// Uuid 消息唯一标识
	// 使用雪花算法生成的 int64 类型 ID
	Uuid int64 `gorm:"column:uuid;uniqueIndex;type:bigint;not null;comment:消息雪花ID"`

	// ConversationID 所属会话
	ConversationID int64 `gorm:"column:conversation_id;index;not null;comment:会话ID"`

	// SenderID 发送者，必须是该会话的成员
	SenderID int64 `gorm:"column:sender_id;index;not null;comment:发送者ID"`

	// Content 消息文本内容
	Content string `gorm:"column:content;type:TEXT;comment:消息内容"`

	// Metadata 附件描述符等附加信息，JSON 格式
	// 列表/审核等外部读取方按此结构解析附件
	Metadata string `gorm:"column:metadata;type:TEXT;comment:附加信息"`

	// SentAt 发送时间
	SentAt time.Time `gorm:"column:sent_at;index;not null;comment:发送时间"`

	// IsRead 是否已被（任一接收方）标记已读
	IsRead bool `gorm:"column:is_read;not null;default:false;comment:是否已读"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}

// EncodeAttachments 将附件列表序列化为 Metadata 存储格式
// 空列表返回空字符串，保持无附件消息的行紧凑
func EncodeAttachments(attachments []Attachment) (string, error) {
	if len(attachments) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(attachments)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeAttachments 从 Metadata 解析附件列表
func DecodeAttachments(metadata string) ([]Attachment, error) {
	if metadata == "" {
		return nil, nil
	}
	var attachments []Attachment
	if err := json.Unmarshal([]byte(metadata), &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}
