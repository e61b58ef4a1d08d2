package repository

import (
	"time"

	"tutorlink_chat_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type presenceRepository struct {
	db *gorm.DB
}

// NewPresenceRepository 创建在线状态 Repository
func NewPresenceRepository(db *gorm.DB) PresenceRepository {
	return &presenceRepository{db: db}
}

// FindByUserID 查找用户的在线状态记录
func (r *presenceRepository) FindByUserID(userID int64) (*model.PresenceRecord, error) {
	var record model.PresenceRecord
	if err := r.db.Where("user_id = ?", userID).First(&record).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询在线状态 user_id=%d", userID)
	}
	return &record, nil
}

// Upsert 写入在线状态（不存在则创建）
// 基于 user_id 唯一索引做 ON DUPLICATE KEY UPDATE，单条语句保证原子性
func (r *presenceRepository) Upsert(userID int64, isOnline bool, lastSeen time.Time) error {
	record := model.PresenceRecord{
		UserID:   userID,
		IsOnline: isOnline,
		LastSeen: lastSeen,
	}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_online", "last_seen", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return wrapDBErrorf(err, "写入在线状态 user_id=%d", userID)
	}
	return nil
}

// UpdateLastSeen 只刷新最近活跃时间
func (r *presenceRepository) UpdateLastSeen(userID int64, lastSeen time.Time) error {
	if err := r.db.Model(&model.PresenceRecord{}).Where("user_id = ?", userID).
		Update("last_seen", lastSeen).Error; err != nil {
		return wrapDBErrorf(err, "刷新活跃时间 user_id=%d", userID)
	}
	return nil
}

// SetOffline 将用户标记为离线
func (r *presenceRepository) SetOffline(userID int64, at time.Time) error {
	if err := r.db.Model(&model.PresenceRecord{}).Where("user_id = ?", userID).
		Updates(map[string]any{
			"is_online": false,
			"last_seen": at,
		}).Error; err != nil {
		return wrapDBErrorf(err, "标记离线 user_id=%d", userID)
	}
	return nil
}

// ForceOfflineBefore 将 lastSeen 早于 cutoff 的在线记录批量强制下线
// 只命中 is_online=true 的行，重复执行是无操作
func (r *presenceRepository) ForceOfflineBefore(cutoff time.Time) (int64, error) {
	res := r.db.Model(&model.PresenceRecord{}).
		Where("is_online = ? AND last_seen < ?", true, cutoff).
		Update("is_online", false)
	if res.Error != nil {
		return 0, wrapDBError(res.Error, "批量强制下线")
	}
	return res.RowsAffected, nil
}
