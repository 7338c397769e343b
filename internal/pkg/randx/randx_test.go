package randx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	seen := make(map[string]struct{})

	for range 100 {
		key, err := ObjectKey()
		require.NoError(t, err)
		assert.True(t, IsValidObjectKey(key), "generated key %q must validate", key)

		_, dup := seen[key]
		assert.False(t, dup, "generated key %q repeated", key)
		seen[key] = struct{}{}
	}
}

func TestIsValidObjectKey(t *testing.T) {
	assert.False(t, IsValidObjectKey(""))
	assert.False(t, IsValidObjectKey("short"))
	assert.False(t, IsValidObjectKey("has spaces!!"))
	assert.False(t, IsValidObjectKey("../../../etc"))
	assert.True(t, IsValidObjectKey("aB3dE6gH9jK2"))
}

func TestMessageIDIsUUID(t *testing.T) {
	id := MessageID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}
