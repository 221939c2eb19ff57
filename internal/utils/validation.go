package utils

import (
	"fmt"
	"slices"
	"strings"
)

// ImmutableProfileFields 是资料更新中不允许出现的字段（同时匹配 camelCase 和 snake_case）
var ImmutableProfileFields = []string{"id", "email", "candidateId", "candidate_id", "createdAt", "created_at"}

// ValidateProfilePatch 检查请求体中是否包含不可修改的字段，返回第一个违规字段的错误
func ValidateProfilePatch(keys []string) error {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)

	for _, key := range sorted {
		for _, field := range ImmutableProfileFields {
			if strings.EqualFold(key, field) {
				return fmt.Errorf("field %q cannot be modified", key)
			}
		}
	}
	return nil
}
