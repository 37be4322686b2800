package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-watch/common/database"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "telhawk", cfg.Storage.IndexPrefix)
	assert.Equal(t, 10000, cfg.Storage.MaxResults)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, database.DefaultTimeouts(), cfg.Database.Timeouts)
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Auth.Enabled)
	assert.Empty(t, cfg.Export.SigningKey)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerting.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
storage:
  index_prefix: ops
database:
  timeouts:
    query: 2s
auth:
  enabled: true
  jwt_secret: file-secret
`), 0o600))
	t.Setenv("ALERTING_STORAGE_INDEX_PREFIX", "env-ops")
	t.Setenv("ALERTING_LOGGING_LEVEL", "debug")
	t.Setenv("ALERTING_DATABASE_TIMEOUTS_BULK", "2m")
	t.Setenv("ALERTING_EXPORT_SIGNING_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "env-ops", cfg.Storage.IndexPrefix)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "env-key", cfg.Export.SigningKey)
	assert.Equal(t, 2*time.Second, cfg.Database.Timeouts.Query)
	assert.Equal(t, 2*time.Minute, cfg.Database.Timeouts.Bulk)
	assert.Equal(t, database.DefaultWriteTimeout, cfg.Database.Timeouts.Write)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  ServerConfig{Port: 8085},
			Storage: StorageConfig{IndexPrefix: "telhawk", MaxResults: 10},
		}
	}
	tests := map[string]func(c *Config){
		"bad port":            func(c *Config) { c.Server.Port = 0 },
		"empty prefix":        func(c *Config) { c.Storage.IndexPrefix = "" },
		"no results":          func(c *Config) { c.Storage.MaxResults = 0 },
		"auth without secret": func(c *Config) { c.Auth.Enabled = true },
		"negative timeout":    func(c *Config) { c.Database.Timeouts.Query = -time.Second },
	}

	ok := valid()
	assert.NoError(t, ok.Validate())
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "telhawk", Password: "p@ss", Database: "alerting", SSLMode: "disable"}
	assert.Equal(t, "postgres://telhawk:p%40ss@db:5432/alerting?sslmode=disable", p.DSN())
}
