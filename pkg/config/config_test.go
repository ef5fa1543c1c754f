package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(``))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./perf.db", cfg.Database.Path)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, 4, cfg.Analysis.MaxWorker)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadFromReader_Override(t *testing.T) {
	content := `
analysis:
  rules_file: /etc/attribution/rules.yaml
  max_worker: 8
database:
  type: mysql
  host: db.internal
  port: 3306
telemetry:
  enabled: true
  exporter: grpc
  endpoint: localhost:4317
`
	cfg, err := LoadFromReader("yaml", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "/etc/attribution/rules.yaml", cfg.Analysis.RulesFile)
	assert.Equal(t, 8, cfg.Analysis.MaxWorker)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "grpc", cfg.Telemetry.Exporter)
}

func TestConfig_Validate(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(``))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	cfg.Database.Type = "oracle"
	assert.Error(t, cfg.Validate())

	cfg.Database.Type = "mysql"
	cfg.Database.Host = ""
	assert.Error(t, cfg.Validate())

	cfg.Database.Type = "sqlite"
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg.Database.Path = "./perf.db"
	cfg.Analysis.MaxWorker = 0
	assert.Error(t, cfg.Validate())
}

func TestConfig_SceneOutputDir(t *testing.T) {
	cfg, err := LoadFromReader("yaml", []byte(`
analysis:
  output_dir: /tmp/out
`))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out/browse_feed", cfg.SceneOutputDir("browse_feed"))
}
