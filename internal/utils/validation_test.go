package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProfilePatch(t *testing.T) {
	assert.NoError(t, ValidateProfilePatch([]string{"fullName", "phone"}))
	assert.NoError(t, ValidateProfilePatch(nil))

	for _, key := range []string{"id", "email", "Email", "candidateId", "candidate_id", "createdAt", "created_at"} {
		assert.Error(t, ValidateProfilePatch([]string{"fullName", key}), key)
	}

	err := ValidateProfilePatch([]string{"phone", "email", "id"})
	assert.EqualError(t, err, `field "email" cannot be modified`)
}
