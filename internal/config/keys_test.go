package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAttendanceKeysDefault(t *testing.T) {
	keys, err := LoadAttendanceKeys("")
	require.NoError(t, err)
	assert.Contains(t, keys, "CCIS")
	assert.Contains(t, keys["CCIS"], "CS")
}

func TestLoadAttendanceKeysFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ENG": ["ME", "EE"]}`), 0o644))

	keys, err := LoadAttendanceKeys(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"ENG": {"ME", "EE"}}, keys)
}

func TestLoadAttendanceKeysRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := LoadAttendanceKeys(path)
	assert.Error(t, err)
}

func TestLoadAttendanceKeysMissingFile(t *testing.T) {
	_, err := LoadAttendanceKeys(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
