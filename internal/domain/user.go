package domain

import (
	"strings"
	"time"
)

// Credential 是登录校验所需的最小记录
type Credential struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
	LastLoginAt  *time.Time
}

type Profile struct {
	ID          int64      `json:"id"`
	Tenant      TenantID   `json:"tenantType"`
	Email       string     `json:"email"`
	CandidateID string     `json:"candidateId"`
	FullName    string     `json:"fullName"`
	Phone       string     `json:"phone"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ProfileUpdate 只包含允许修改的字段，nil 表示不修改
type ProfileUpdate struct {
	FullName *string
	Phone    *string
}

// NewUser 用于写入新账户（seed 使用）
type NewUser struct {
	Email        string
	PasswordHash string
	CandidateID  string
	FullName     string
	Phone        string
}

// NormalizeEmail 邮箱在同一 tenant 内大小写不敏感
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
