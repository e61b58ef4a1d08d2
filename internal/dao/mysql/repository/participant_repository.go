package repository

import (
	"time"

	"tutorlink_chat_server/internal/model"

	"gorm.io/gorm"
)

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository 创建会话成员 Repository
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

// FindByConversationID 查找会话的全部成员
func (r *participantRepository) FindByConversationID(conversationID int64) ([]model.Participant, error) {
	var participants []model.Participant
	if err := r.db.Where("conversation_id = ?", conversationID).
		Order("joined_at ASC").Find(&participants).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话成员 conversation_id=%d", conversationID)
	}
	return participants, nil
}

// FindByConversationAndUser 查找某用户在某会话中的成员记录
func (r *participantRepository) FindByConversationAndUser(conversationID, userID int64) (*model.Participant, error) {
	var participant model.Participant
	if err := r.db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&participant).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话成员 conversation_id=%d user_id=%d", conversationID, userID)
	}
	return &participant, nil
}

// Create 创建成员记录
func (r *participantRepository) Create(participant *model.Participant) error {
	if err := r.db.Create(participant).Error; err != nil {
		if IsDuplicateKey(err) {
			return err
		}
		return wrapDBError(err, "创建会话成员")
	}
	return nil
}

// IncrementUnreadExcept 给除指定用户外的所有成员未读数 +1
// 单条 UPDATE 保证整个计数更新是一个原子操作
func (r *participantRepository) IncrementUnreadExcept(conversationID, exceptUserID int64) error {
	if err := r.db.Model(&model.Participant{}).
		Where("conversation_id = ? AND user_id <> ?", conversationID, exceptUserID).
		Update("unread_count", gorm.Expr("unread_count + 1")).Error; err != nil {
		return wrapDBErrorf(err, "累加未读数 conversation_id=%d", conversationID)
	}
	return nil
}

// ResetUnread 将指定成员未读数清零并记录已读时间
func (r *participantRepository) ResetUnread(conversationID, userID int64, at time.Time) error {
	if err := r.db.Model(&model.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Updates(map[string]any{
			"unread_count": 0,
			"last_read_at": at,
		}).Error; err != nil {
		return wrapDBErrorf(err, "清零未读数 conversation_id=%d user_id=%d", conversationID, userID)
	}
	return nil
}
