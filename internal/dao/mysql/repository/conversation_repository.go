package repository

import (
	"time"

	"tutorlink_chat_server/internal/model"

	"gorm.io/gorm"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话 Repository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// FindByID 根据 ID 查找会话
func (r *conversationRepository) FindByID(id int64) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.First(&conversation, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 id=%d", id)
	}
	return &conversation, nil
}

// FindDirectByPairKey 根据去重键查找单聊会话
func (r *conversationRepository) FindDirectByPairKey(pairKey string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("kind = ? AND pair_key = ?", model.ConversationKindDirect, pairKey).
		First(&conversation).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询单聊会话 pair_key=%s", pairKey)
	}
	return &conversation, nil
}

// FindByKindAndName 根据类型和确定性名称查找会话
func (r *conversationRepository) FindByKindAndName(kind, name string) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := r.db.Where("kind = ? AND name = ?", kind, name).
		First(&conversation).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询会话 kind=%s name=%s", kind, name)
	}
	return &conversation, nil
}

// Create 创建会话
// 唯一索引冲突不在这里吞掉，由解析层识别后回退为重新查询
func (r *conversationRepository) Create(conversation *model.Conversation) error {
	if err := r.db.Create(conversation).Error; err != nil {
		if IsDuplicateKey(err) {
			return err
		}
		return wrapDBError(err, "创建会话")
	}
	return nil
}

// TouchUpdatedAt 刷新会话活跃时间
func (r *conversationRepository) TouchUpdatedAt(id int64, at time.Time) error {
	if err := r.db.Model(&model.Conversation{}).Where("id = ?", id).
		Update("updated_at", at).Error; err != nil {
		return wrapDBErrorf(err, "刷新会话活跃时间 id=%d", id)
	}
	return nil
}
