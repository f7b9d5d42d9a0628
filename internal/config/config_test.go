package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/mudaccounts/internal/model"
)

type ConfigSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
	for _, key := range []string{
		"ACCTD_HOST", "ACCTD_PORT", "STORAGE_TYPE", "ACCTD_STORAGE_DIR",
		"REDIS_URL", "ACCTD_ADMIN_TOKEN", "ACCTD_LOG_LEVEL", "ACCTD_CLEANUP_INTERVAL",
	} {
		s.T().Setenv(key, "")
	}
}

func (s *ConfigSuite) writeFile(content string) string {
	path := filepath.Join(s.dir, "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0600))
	return path
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load("")
	s.Require().NoError(err)

	s.Equal(8080, cfg.Server.Port)
	s.Equal(StorageTypeDisk, cfg.Storage.Type)
	s.Equal("lib/acctfiles", cfg.Storage.Dir)
	s.Equal(time.Hour, cfg.Cleanup.Interval)
	s.Equal(model.DefaultRetentionRules(), cfg.Cleanup.Rules)

	level, err := cfg.LogLevel()
	s.Require().NoError(err)
	s.Equal(slog.LevelInfo, level)
}

func (s *ConfigSuite) TestFileOverridesDefaults() {
	path := s.writeFile(`
server:
  port: 9090
storage:
  type: memory
cleanup:
  interval: 30m
  rules:
    - {level: 5, days: 10}
admin_token: sekrit
log:
  level: debug
`)

	cfg, err := Load(path)
	s.Require().NoError(err)

	s.Equal(9090, cfg.Server.Port)
	s.Equal(15*time.Second, cfg.Server.ReadTimeout)
	s.Equal(StorageTypeMemory, cfg.Storage.Type)
	s.Equal(30*time.Minute, cfg.Cleanup.Interval)
	s.Equal([]model.RetentionRule{{Level: 5, Days: 10}}, cfg.Cleanup.Rules)
	s.Equal("sekrit", cfg.AdminToken)

	level, err := cfg.LogLevel()
	s.Require().NoError(err)
	s.Equal(slog.LevelDebug, level)
}

func (s *ConfigSuite) TestEnvOverridesFile() {
	path := s.writeFile("server:\n  port: 9090\nadmin_token: fromfile\n")
	s.T().Setenv("ACCTD_PORT", "7070")
	s.T().Setenv("ACCTD_ADMIN_TOKEN", "fromenv")
	s.T().Setenv("STORAGE_TYPE", "redis")
	s.T().Setenv("REDIS_URL", "redis://cache:6379/2")
	s.T().Setenv("ACCTD_CLEANUP_INTERVAL", "5m")

	cfg, err := Load(path)
	s.Require().NoError(err)

	s.Equal(7070, cfg.Server.Port)
	s.Equal("fromenv", cfg.AdminToken)
	s.Equal(StorageTypeRedis, cfg.Storage.Type)
	s.Equal("redis://cache:6379/2", cfg.Redis.URL)
	s.Equal(5*time.Minute, cfg.Cleanup.Interval)
}

func (s *ConfigSuite) TestInvalidValues() {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown storage", "storage:\n  type: tape\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"negative days", "cleanup:\n  rules:\n    - {level: 1, days: -1}\n"},
		{"bad log level", "log:\n  level: chatty\n"},
		{"not yaml", "server: [\n"},
	}
	for _, tt := range tests {
		_, err := Load(s.writeFile(tt.content))
		s.Error(err, tt.name)
	}
}

func (s *ConfigSuite) TestBadEnvValue() {
	s.T().Setenv("ACCTD_PORT", "eighty")
	_, err := Load("")
	s.Error(err)
}

func (s *ConfigSuite) TestMissingFile() {
	_, err := Load(filepath.Join(s.dir, "absent.yaml"))
	s.Error(err)
}
