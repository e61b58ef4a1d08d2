package repository

import (
	"tutorlink_chat_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(id int64) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 id=%d", id)
	}
	return &user, nil
}

// FindByIDs 批量根据 ID 查找用户
func (r *userRepository) FindByIDs(ids []int64) ([]model.UserInfo, error) {
	var users []model.UserInfo
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}
