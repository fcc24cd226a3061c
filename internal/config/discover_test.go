package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := DefaultPath()
	assert.Contains(t, path, ".config/bookarc/config.toml")
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	assert.Equal(t, "/custom/config/bookarc/config.toml", DefaultPath())
}

func TestDefaultJournalPath_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	assert.Equal(t, "/custom/data/bookarc/journal.db", DefaultJournalPath())
}

func TestDiscover_BOOKARC_CONFIG(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "custom.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[library]"), 0644))

	t.Setenv("BOOKARC_CONFIG", cfgPath)

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, cfgPath, path)
}

func TestDiscover_BOOKARC_CONFIG_NotFound(t *testing.T) {
	t.Setenv("BOOKARC_CONFIG", "/nonexistent/config.toml")

	_, err := Discover()
	require.Error(t, err, "expected error for missing BOOKARC_CONFIG")
	assert.Contains(t, err.Error(), "BOOKARC_CONFIG")
}

func TestDiscover_CurrentDir(t *testing.T) {
	t.Setenv("BOOKARC_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "bookarc.toml"), []byte("[library]"), 0644))
	t.Chdir(tmp)

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, "./bookarc.toml", path)
}

func TestDiscover_XDG(t *testing.T) {
	t.Setenv("BOOKARC_CONFIG", "")
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(t.TempDir())

	cfgPath := filepath.Join(xdg, "bookarc", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0755))
	require.NoError(t, os.WriteFile(cfgPath, []byte("[library]"), 0644))

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, cfgPath, path)
}

func TestDiscover_NotFound(t *testing.T) {
	if _, err := os.Stat("/etc/bookarc/config.toml"); err == nil {
		t.Skip("system config present")
	}
	t.Setenv("BOOKARC_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, err := Discover()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config not found")
}
