package credentials

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTempPasswordLength(t *testing.T) {
	pwd, err := NewTempPassword(12)
	require.NoError(t, err)
	assert.Len(t, pwd, 12)
}

func TestNewTempPasswordEnforcesMinimum(t *testing.T) {
	pwd, err := NewTempPassword(3)
	require.NoError(t, err)
	assert.Len(t, pwd, minLength)
}

func TestNewTempPasswordCharset(t *testing.T) {
	pwd, err := NewTempPassword(64)
	require.NoError(t, err)
	for _, r := range pwd {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected character %q", r)
	}
}

func TestNewTempPasswordVaries(t *testing.T) {
	a, err := NewTempPassword(16)
	require.NoError(t, err)
	b, err := NewTempPassword(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
