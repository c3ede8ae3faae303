package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WEAVER_TEST_FROM_FILE=file\nWEAVER_TEST_PRESET=file\n"), 0o600))
	t.Setenv("WEAVER_TEST_PRESET", "process")
	t.Cleanup(func() { os.Unsetenv("WEAVER_TEST_FROM_FILE") })

	require.NoError(t, Load(path))
	assert.Equal(t, "file", String("WEAVER_TEST_FROM_FILE", ""))
	assert.Equal(t, "process", String("WEAVER_TEST_PRESET", ""))
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, Load(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT VALID LINE WITHOUT EQUALS 'x\n"), 0o600))
	assert.Error(t, Load(path))
}

func TestString(t *testing.T) {
	t.Setenv("WEAVER_TEST_SET", "")
	assert.Equal(t, "", String("WEAVER_TEST_SET", "fallback"))
	assert.Equal(t, "fallback", String("WEAVER_TEST_SURELY_UNSET", "fallback"))
}
