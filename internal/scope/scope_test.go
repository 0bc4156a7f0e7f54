package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentScope_AuthenticatedSession(t *testing.T) {
	key := NewSessionKey()
	token, err := NewSessionToken(key, "user-42", time.Hour)
	require.NoError(t, err)

	r, err := NewResolver(key, StaticSession(token))
	require.NoError(t, err)

	assert.Equal(t, ID("user-42"), r.CurrentScope())
}

func TestCurrentScope_NeverFails(t *testing.T) {
	key := NewSessionKey()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "v4.local.not-a-real-token"},
		{"wrong version", "v2.local.whatever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(key, StaticSession(tt.token))
			require.NoError(t, err)
			assert.Equal(t, Anonymous, r.CurrentScope())
		})
	}
}

func TestCurrentScope_ExpiredToken(t *testing.T) {
	key := NewSessionKey()
	token, err := NewSessionToken(key, "user-42", -time.Minute)
	require.NoError(t, err)

	r, err := NewResolver(key, StaticSession(token))
	require.NoError(t, err)
	assert.Equal(t, Anonymous, r.CurrentScope())
}

func TestCurrentScope_WrongKey(t *testing.T) {
	token, err := NewSessionToken(NewSessionKey(), "user-42", time.Hour)
	require.NoError(t, err)

	r, err := NewResolver(NewSessionKey(), StaticSession(token))
	require.NoError(t, err)
	assert.Equal(t, Anonymous, r.CurrentScope())
}

func TestCurrentScope_NilReceiverAndSource(t *testing.T) {
	var r *Resolver
	assert.Equal(t, Anonymous, r.CurrentScope())

	r2, err := NewResolver(NewSessionKey(), nil)
	require.NoError(t, err)
	assert.Equal(t, Anonymous, r2.CurrentScope())
}

func TestNewResolver_BadKey(t *testing.T) {
	_, err := NewResolver("short", StaticSession(""))
	assert.Error(t, err)

	_, err = NewResolver("zz"+NewSessionKey()[2:], StaticSession(""))
	assert.Error(t, err)
}

func TestIsAnonymous(t *testing.T) {
	assert.True(t, Anonymous.IsAnonymous())
	assert.True(t, ID("").IsAnonymous())
	assert.False(t, ID("user-1").IsAnonymous())
	assert.Equal(t, "anonymous", ID("").String())
}
