// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 所有 Repository 接口在此文件定义，具体实现在各自的文件中
package repository

import (
	"errors"
	"time"

	"tutorlink_chat_server/internal/model"
	"tutorlink_chat_server/pkg/errorx"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ==================== 错误包装辅助函数 ====================

// wrapDBError 包装数据库错误
// 根据错误类型返回不同的错误码：
//   - ErrRecordNotFound -> CodeNotFound
//   - 其他错误 -> CodeDBError
func wrapDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrap(err, errorx.CodeNotFound, msg)
	}
	return errorx.Wrap(err, errorx.CodeDBError, msg)
}

// wrapDBErrorf 包装数据库错误（支持格式化消息）
func wrapDBErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.Wrapf(err, errorx.CodeNotFound, format, args...)
	}
	return errorx.Wrapf(err, errorx.CodeDBError, format, args...)
}

// IsDuplicateKey 判断错误是否由唯一索引冲突引起
// 会话解析依赖唯一索引做并发创建的兜底：冲突说明另一个调用已经建好，
// 调用方应当回退为重新查询而不是报错
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// ==================== Repository 接口定义 ====================

// UserRepository 用户数据访问接口
// 用户表的写入属于平台侧，这里只提供消息校验需要的读取
type UserRepository interface {
	// FindByID 根据 ID 查找用户
	FindByID(id int64) (*model.UserInfo, error)
	// FindByIDs 批量根据 ID 查找用户
	FindByIDs(ids []int64) ([]model.UserInfo, error)
	// Create 创建用户（测试和本地联调使用）
	Create(user *model.UserInfo) error
}

// ConversationRepository 会话数据访问接口
type ConversationRepository interface {
	// FindByID 根据 ID 查找会话
	FindByID(id int64) (*model.Conversation, error)
	// FindDirectByPairKey 根据去重键查找单聊会话
	FindDirectByPairKey(pairKey string) (*model.Conversation, error)
	// FindByKindAndName 根据类型和确定性名称查找会话
	FindByKindAndName(kind, name string) (*model.Conversation, error)
	// Create 创建会话
	Create(conversation *model.Conversation) error
	// TouchUpdatedAt 刷新会话活跃时间
	TouchUpdatedAt(id int64, at time.Time) error
}

// ParticipantRepository 会话成员数据访问接口
type ParticipantRepository interface {
	// FindByConversationID 查找会话的全部成员
	FindByConversationID(conversationID int64) ([]model.Participant, error)
	// FindByConversationAndUser 查找某用户在某会话中的成员记录
	FindByConversationAndUser(conversationID, userID int64) (*model.Participant, error)
	// Create 创建成员记录
	Create(participant *model.Participant) error
	// IncrementUnreadExcept 给除指定用户外的所有成员未读数 +1
	IncrementUnreadExcept(conversationID, exceptUserID int64) error
	// ResetUnread 将指定成员未读数清零并记录已读时间
	ResetUnread(conversationID, userID int64, at time.Time) error
}

// MessageRepository 消息数据访问接口
type MessageRepository interface {
	// Create 创建消息
	Create(message *model.Message) error
	// FindByConversationID 按会话查找消息（时间升序）
	FindByConversationID(conversationID int64) ([]model.Message, error)
	// MarkRead 按雪花 ID 批量标记消息已读
	MarkRead(uuids []int64) error
}

// PresenceRepository 在线状态数据访问接口
type PresenceRepository interface {
	// FindByUserID 查找用户的在线状态记录
	FindByUserID(userID int64) (*model.PresenceRecord, error)
	// Upsert 写入在线状态（不存在则创建）
	Upsert(userID int64, isOnline bool, lastSeen time.Time) error
	// UpdateLastSeen 只刷新最近活跃时间
	UpdateLastSeen(userID int64, lastSeen time.Time) error
	// SetOffline 将用户标记为离线
	SetOffline(userID int64, at time.Time) error
	// ForceOfflineBefore 将 lastSeen 早于 cutoff 的在线记录批量强制下线
	// 返回受影响的行数；对已离线记录是无操作
	ForceOfflineBefore(cutoff time.Time) (int64, error)
}

// TutorSessionRepository 辅导课数据访问接口
// 课表由平台侧维护，这里只读取课程信息和成员名单
type TutorSessionRepository interface {
	// FindByID 根据 ID 查找辅导课
	FindByID(id int64) (*model.TutorSession, error)
	// FindRoster 查找辅导课成员名单（导师 + 已报名学生）
	FindRoster(sessionID int64) ([]int64, error)
}
