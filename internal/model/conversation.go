// Package model 定义数据库实体模型
// 本文件定义会话模型，会话是一组用户之间的持久消息线程
package model

import (
	"database/sql"
	"fmt"
	"time"
)

// 会话类型常量
const (
	ConversationKindDirect      = "direct"      // 单聊，固定两个成员
	ConversationKindGroup       = "group"       // 普通群聊
	ConversationKindSessionChat = "sessionChat" // 辅导课（session）群聊
)

// Conversation 会话模型
// 对应数据库 conversation 表
// direct 会话的不变量：恰好两个成员，且同一对用户至多存在一条记录，
// 由 pair_key 上的唯一索引在数据库层保证
type Conversation struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"` // 会话列表按最近活跃排序

	// Kind 会话类型：direct / group / sessionChat
	Kind string `gorm:"column:kind;type:varchar(15);not null;uniqueIndex:idx_conversation_kind_name;comment:会话类型"`

	// Name 会话名称
	// sessionChat 会话使用从课程派生的确定性名称（见 SessionChatName），
	// 重复创建调用依赖 (kind, name) 唯一索引做幂等；direct 会话为 NULL，
	// MySQL 的唯一索引不约束 NULL 行
	Name sql.NullString `gorm:"column:name;type:varchar(64);uniqueIndex:idx_conversation_kind_name;comment:会话名称"`

	// PairKey direct 会话的去重键，"小id:大id" 形式
	// 唯一索引保证并发首次互发时不会裂变出两条会话；非 direct 会话为 NULL
	PairKey sql.NullString `gorm:"column:pair_key;type:varchar(42);uniqueIndex;comment:单聊去重键"`
}

// TableName 指定表名
func (Conversation) TableName() string {
	return "conversation"
}

// DirectPairKey 计算一对用户的去重键，与参数顺序无关
func DirectPairKey(userAId, userBId int64) string {
	if userAId > userBId {
		userAId, userBId = userBId, userAId
	}
	return fmt.Sprintf("%d:%d", userAId, userBId)
}

// SessionChatName 计算辅导课群聊的确定性名称
// 由课程所属模块和课程 ID 派生，保证重复解析命中同一条会话
func SessionChatName(moduleID, sessionID int64) string {
	return fmt.Sprintf("session-%d-%d", moduleID, sessionID)
}
