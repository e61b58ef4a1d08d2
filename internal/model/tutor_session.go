// Package model 定义数据库实体模型
// 本文件定义辅导课及报名模型
// 这两张表由平台的课程/排课模块负责增删改，本服务只读取，
// 用于辅导课群聊的成员名单（导师 + 已报名学生）
package model

import "time"

// TutorSession 辅导课
type TutorSession struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedAt time.Time

	// ModuleID 所属课程模块
	ModuleID int64 `gorm:"column:module_id;index;not null;comment:课程模块ID"`

	// TutorID 授课导师
	TutorID int64 `gorm:"column:tutor_id;index;not null;comment:导师ID"`

	// Title 课程标题
	Title string `gorm:"column:title;type:varchar(100);not null;comment:标题"`

	// ScheduledAt 开课时间
	ScheduledAt time.Time `gorm:"column:scheduled_at;comment:开课时间"`
}

// TableName 指定表名
func (TutorSession) TableName() string {
	return "tutor_session"
}

// SessionEnrollment 辅导课报名记录
type SessionEnrollment struct {
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedAt time.Time

	// SessionID 辅导课 ID
	SessionID int64 `gorm:"column:session_id;uniqueIndex:idx_enrollment_session_student;not null;comment:辅导课ID"`

	// StudentID 报名学生
	StudentID int64 `gorm:"column:student_id;uniqueIndex:idx_enrollment_session_student;not null;comment:学生ID"`
}

// TableName 指定表名
func (SessionEnrollment) TableName() string {
	return "session_enrollment"
}
