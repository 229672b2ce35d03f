package token

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationToken(t *testing.T) {
	a, err := NewVerificationToken()
	require.NoError(t, err)
	b, err := NewVerificationToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	_, err = hex.DecodeString(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
