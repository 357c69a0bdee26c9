package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJWTSecretKeyGeneratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "jwt_secret.key")

	first, err := LoadJWTSecretKey(path)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadJWTSecretKey(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadJWTSecretKeyRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt_secret.key")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, err := LoadJWTSecretKey(path)
	assert.Error(t, err)
}
