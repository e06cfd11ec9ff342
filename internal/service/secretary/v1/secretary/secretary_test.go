package secretary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexaplatform/nexa-rewards/internal/config"
)

func TestNewSecretaryService(t *testing.T) {
	_, err := NewSecretaryService(&config.SecretConfig{})
	require.Error(t, err)

	sec, err := NewSecretaryService(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)
	require.NotNil(t, sec)
}

func TestTokenRoundTrip(t *testing.T) {
	sec, err := NewSecretaryService(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	token, err := sec.NewToken("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := sec.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	sec, err := NewSecretaryService(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)
	other, err := NewSecretaryService(&config.SecretConfig{SecretKey: "another-secret"})
	require.NoError(t, err)

	token, err := sec.NewToken("alice")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)

	_, err = sec.ValidateToken("garbage")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	sec, err := NewSecretaryService(&config.SecretConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	hash, err := sec.HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	require.NoError(t, sec.CheckPassword(hash, "hunter22"))
	require.Error(t, sec.CheckPassword(hash, "wrong"))
}
