// internal/auth/session_test.go
package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	token, err := CreateJWT("d84fbfc3-5f6a-4c10-9f4e-1f0d6a1b2c3d")
	require.NoError(t, err)

	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "d84fbfc3-5f6a-4c10-9f4e-1f0d6a1b2c3d", sub)

	_, err = AuthenticateJWT("not-a-token")
	assert.Error(t, err)
}

func TestInitFromPath(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "jwt_private.key")
	pubPath := filepath.Join(dir, "jwt_public.key")
	require.NoError(t, os.WriteFile(privPath, priv, 0o600))
	require.NoError(t, os.WriteFile(pubPath, pub, 0o600))

	require.NoError(t, InitFromPath(privPath, pubPath))

	// Tokens signed with file-backed keys verify across re-inits, which is
	// what keeps sessions alive over a server restart.
	token, err := CreateJWT("user-1")
	require.NoError(t, err)

	require.NoError(t, InitFromPath(privPath, pubPath))
	sub, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	err = InitFromPath(filepath.Join(dir, "missing.key"), pubPath)
	assert.Error(t, err)
}

func TestTokenExpireTimeParsing(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	require.NoError(t, parseTokenExpireTime())
	assert.Equal(t, 0, tokenExpireSec)

	t.Setenv("TOKEN_EXPIRE_TIME", "24h")
	require.NoError(t, parseTokenExpireTime())
	assert.Equal(t, 86400, tokenExpireSec)

	t.Setenv("TOKEN_EXPIRE_TIME", "soon")
	assert.Error(t, parseTokenExpireTime())

	t.Setenv("TOKEN_EXPIRE_TIME", "")
	require.NoError(t, parseTokenExpireTime())
}
