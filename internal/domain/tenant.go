package domain

import "fmt"

type TenantID string

const (
	TenantSewing     TenantID = "sewing"
	TenantUpholstery TenantID = "upholstery"
)

// TenantOrder 是登录时依次尝试的顺序，sewing 必须在 upholstery 之前
var TenantOrder = []TenantID{TenantSewing, TenantUpholstery}

func ParseTenantID(s string) (TenantID, error) {
	switch TenantID(s) {
	case TenantSewing, TenantUpholstery:
		return TenantID(s), nil
	default:
		return "", fmt.Errorf("unknown tenant %q", s)
	}
}

func (t TenantID) String() string {
	return string(t)
}
