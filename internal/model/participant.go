// Package model 定义数据库实体模型
// 本文件定义会话成员模型，每个用户在每个会话中有一行成员记录
package model

import (
	"database/sql"
	"time"
)

// Participant 会话成员模型
// 对应数据库 participant 表
// (conversation_id, user_id) 唯一；UnreadCount 只由消息投递（+1）
// 和已读标记（清零）两条路径修改
type Participant struct {
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	// ConversationID 所属会话
	ConversationID int64 `gorm:"column:conversation_id;uniqueIndex:idx_participant_conv_user;index;not null;comment:会话ID"`

	// UserID 成员用户
	UserID int64 `gorm:"column:user_id;uniqueIndex:idx_participant_conv_user;index;not null;comment:用户ID"`

	// JoinedAt 加入时间
	JoinedAt time.Time `gorm:"column:joined_at;not null;comment:加入时间"`

	// UnreadCount 未读计数，恒 >= 0
	UnreadCount int `gorm:"column:unread_count;not null;default:0;comment:未读数"`

	// LastReadAt 最近一次标记已读的时间
	LastReadAt sql.NullTime `gorm:"column:last_read_at;comment:最近已读时间"`
}

// TableName 指定表名
func (Participant) TableName() string {
	return "participant"
}
