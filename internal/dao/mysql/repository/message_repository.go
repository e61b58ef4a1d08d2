package repository

import (
	"tutorlink_chat_server/internal/model"

	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息 Repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create 创建消息
func (r *messageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return wrapDBError(err, "创建消息")
	}
	return nil
}

// FindByConversationID 按会话查找消息（时间升序）
func (r *messageRepository) FindByConversationID(conversationID int64) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询消息 conversation_id=%d", conversationID)
	}
	return messages, nil
}

// MarkRead 按雪花 ID 批量标记消息已读
func (r *messageRepository) MarkRead(uuids []int64) error {
	if len(uuids) == 0 {
		return nil
	}
	if err := r.db.Model(&model.Message{}).Where("uuid IN ?", uuids).
		Update("is_read", true).Error; err != nil {
		return wrapDBError(err, "标记消息已读")
	}
	return nil
}
