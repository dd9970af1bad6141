package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_TYPE", "DB_CONN", "DB_SCHEMA", "OUTPUT_DIR", "PORT", "GRAPHVIZ_PATH", "TASK_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// chdir changes the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DBType)
	assert.Equal(t, time.Hour, cfg.TaskTTL)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	content := "DB_TYPE=Postgres\nDB_CONN=postgres://localhost/app\nDB_SCHEMA=public\nPORT=9090\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "postgres://localhost/app", cfg.DBConn)
	assert.Equal(t, "public", cfg.DBSchema)
	assert.Equal(t, "9090", cfg.Port)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\n"), 0644))
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err, "explicit file must exist")

	t.Setenv("DB_TYPE", "oracle")
	chdir(t, t.TempDir())
	_, err = Load("")
	assert.Error(t, err)

	t.Setenv("DB_TYPE", "")
	t.Setenv("PORT", "http")
	_, err = Load("")
	assert.Error(t, err)

	t.Setenv("PORT", "")
	for _, ttl := range []string{"soon", "-5m", "0s"} {
		t.Setenv("TASK_TTL", ttl)
		_, err = Load("")
		assert.Error(t, err, ttl)
	}

	t.Setenv("TASK_TTL", "15m")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.TaskTTL)
}
