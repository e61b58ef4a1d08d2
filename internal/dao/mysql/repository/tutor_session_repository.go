package repository

import (
	"tutorlink_chat_server/internal/model"

	"gorm.io/gorm"
)

type tutorSessionRepository struct {
	db *gorm.DB
}

// NewTutorSessionRepository 创建辅导课 Repository
func NewTutorSessionRepository(db *gorm.DB) TutorSessionRepository {
	return &tutorSessionRepository{db: db}
}

// FindByID 根据 ID 查找辅导课
func (r *tutorSessionRepository) FindByID(id int64) (*model.TutorSession, error) {
	var session model.TutorSession
	if err := r.db.First(&session, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询辅导课 id=%d", id)
	}
	return &session, nil
}

// FindRoster 查找辅导课成员名单（导师 + 已报名学生）
func (r *tutorSessionRepository) FindRoster(sessionID int64) ([]int64, error) {
	session, err := r.FindByID(sessionID)
	if err != nil {
		return nil, err
	}

	var enrollments []model.SessionEnrollment
	if err := r.db.Where("session_id = ?", sessionID).Find(&enrollments).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询报名记录 session_id=%d", sessionID)
	}

	roster := make([]int64, 0, len(enrollments)+1)
	roster = append(roster, session.TutorID)
	for _, e := range enrollments {
		if e.StudentID != session.TutorID {
			roster = append(roster, e.StudentID)
		}
	}
	return roster, nil
}
