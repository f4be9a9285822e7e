package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_Deterministic(t *testing.T) {
	t.Parallel()

	k1 := Key("Acme Corp builds rockets.")
	k2 := Key("Acme Corp builds rockets.")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64) // hex SHA-256
}

func TestKey_DiffersByContent(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, Key("Acme Corp"), Key("Acme Corp "))
}

func TestKey_EmptyText(t *testing.T) {
	t.Parallel()

	// SHA-256 of the empty string.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Key(""),
	)
}

func TestShortKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abcdef012345", shortKey("abcdef0123456789"))
	assert.Equal(t, "abc", shortKey("abc"))
}
