package domain

import (
	"fmt"
	"time"
)

// Identity 只存在于 token 中，不会持久化
type Identity struct {
	UnifiedID string    `json:"unifiedId"`
	UserID    int64     `json:"-"`
	Email     string    `json:"email"`
	Tenant    TenantID  `json:"tenantType"`
	IssuedAt  time.Time `json:"tokenIssuedAt"`
	ExpiresAt time.Time `json:"tokenExpiry"`
}

func UnifiedID(tenant TenantID, userID int64) string {
	return fmt.Sprintf("%s:%d", tenant, userID)
}
