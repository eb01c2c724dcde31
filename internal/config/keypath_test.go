package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyPath(t *testing.T) {
	k, err := ParseKeyPath("gateway.tls.enabled")
	require.NoError(t, err)
	assert.Equal(t, KeyPath{"gateway", "tls", "enabled"}, k)
	assert.Equal(t, "gateway.tls.enabled", k.String())

	for _, bad := range []string{"", "gateway..port", "chat.__proto__", "agents.0", "a b"} {
		_, err := ParseKeyPath(bad)
		assert.Error(t, err, bad)
	}
}

func TestKeyPathSetGetUnset(t *testing.T) {
	root := map[string]any{"chat": "scalar"}
	title := KeyPath{"chat", "title"}

	title.Set(root, "x")
	v, ok := title.Get(root)
	require.True(t, ok)
	assert.Equal(t, "x", v)

	assert.True(t, title.Unset(root))
	assert.False(t, title.Unset(root))
	assert.False(t, KeyPath{"missing", "key"}.Unset(root))

	_, ok = title.Get(root)
	assert.False(t, ok)
	_, ok = KeyPath{"chat", "title", "deeper"}.Get(root)
	assert.False(t, ok)
}
