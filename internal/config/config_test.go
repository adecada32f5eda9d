package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"history": { "path": "/var/lib/scenc/builds.db" },
		"influx": { "enabled": true, "host": "10.0.0.1" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenc.cfg.json"), []byte(cfg), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "/var/lib/scenc/builds.db", viper.GetString("history.path"))
	assert.Equal(t, true, viper.GetBool("influx.enabled"))
	assert.Equal(t, "10.0.0.1", viper.GetString("influx.host"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenc.cfg.json"), []byte(`{}`), 0644))

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./scenclogs", viper.GetString("logsDir"))
	assert.Equal(t, 42, viper.GetInt("compiler.defaultSeed"))
	assert.Equal(t, 1.0, viper.GetFloat64("compiler.lanepointSpacing"))
	assert.Equal(t, true, viper.GetBool("history.enabled"))
	assert.Equal(t, "./scenc_history.db", viper.GetString("history.path"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "localhost", viper.GetString("influx.host"))
	assert.Equal(t, "8086", viper.GetString("influx.port"))
	assert.Equal(t, "http", viper.GetString("influx.protocol"))
	assert.Equal(t, "scenc-metrics", viper.GetString("influx.org"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "", viper.GetString("otel.endpoint"))
	assert.Equal(t, false, viper.GetBool("otel.insecure"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetFloat64(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testFloat", 2.5)
	assert.Equal(t, 2.5, GetFloat64("testFloat"))
}
