// Package model 定义数据库实体模型
// 本文件定义用户信息模型，用户表由平台侧的账号/后台模块维护，
// 本服务只读取这些行用于身份校验和路由
package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 用户角色常量
const (
	RoleStudent = "student" // 学生
	RoleTutor   = "tutor"   // 导师
	RoleAdmin   = "admin"   // 管理员
)

// UserInfo 用户信息模型
// 对应数据库 user_info 表
type UserInfo struct {
	// ID 用户唯一标识，自增主键
	// 实时通道内所有路由（私有房间、会话成员）都以该数值 ID 为键
	ID        int64 `gorm:"column:id;primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Nickname 显示昵称
	Nickname string `gorm:"column:nickname;type:varchar(30);not null;comment:昵称"`

	// Email 登录邮箱
	Email string `gorm:"column:email;index;type:varchar(60);not null;comment:邮箱"`

	// Role 平台角色：student / tutor / admin
	Role string `gorm:"column:role;type:varchar(10);not null;default:student;comment:角色"`

	// Password 密码（bcrypt 哈希），凭证签发方使用，本服务不直接校验密码
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码"`

	// Status 账号状态
	// 0=正常, 1=禁用
	Status int8 `gorm:"column:status;index;not null;comment:状态，0.正常，1.禁用"`

	// RawPassword 明文密码（不存入数据库）
	// 用于接收前端传来的明文密码，在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave GORM Hook：在创建和更新前自动调用
// 将 RawPassword 明文密码加密后存入 Password 字段
func (u *UserInfo) BeforeSave(tx *gorm.DB) (err error) {
	if u.RawPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
		u.RawPassword = "" // 清空明文，防止泄露
	}
	return nil
}

// CheckPassword 校验密码是否正确
func (u *UserInfo) CheckPassword(plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext))
	return err == nil
}
