// Package model 定义数据库实体模型
// 本文件定义在线状态模型
package model

import "time"

// PresenceRecord 在线状态记录
// 对应数据库 presence_record 表，每个用户一行，只增不删
// 写入方有两个：连接跟踪（上线/活跃/断连）和兜底清理任务（过期强制下线）
type PresenceRecord struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	UpdatedAt time.Time

	// UserID 用户 ID，每个用户唯一一行
	UserID int64 `gorm:"column:user_id;uniqueIndex;not null;comment:用户ID"`

	// IsOnline 当前是否在线
	IsOnline bool `gorm:"column:is_online;index;not null;default:false;comment:是否在线"`

	// LastSeen 最近活跃时间，心跳按节流窗口刷新
	LastSeen time.Time `gorm:"column:last_seen;not null;comment:最近活跃时间"`
}

// TableName 指定表名
func (PresenceRecord) TableName() string {
	return "presence_record"
}
