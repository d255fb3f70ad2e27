package config

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/marcus/roster/internal/db"
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
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load(s.dir)
	s.Require().NoError(err)
	s.Equal(db.DriverModernc, cfg.Store.Driver)
	s.Equal(DefaultSyncURL, cfg.Sync.URL)
	s.Equal(30*time.Second, cfg.Sync.Timeout)
	s.Equal("dial", cfg.Sync.Probe)
	s.Equal(5*time.Minute, cfg.Agent.Interval)
	s.Equal(3*time.Second, cfg.Agent.Debounce)
	s.True(cfg.Agent.Watch)
	s.Equal("info", cfg.Log.Level)
	s.Equal(10, cfg.Log.MaxSizeMB)
}

func (s *ConfigSuite) TestSetPersistsOnlyWrittenKeys() {
	s.Require().NoError(Set(s.dir, "sync.url", "https://collect.example.org/people"))
	s.Require().NoError(Set(s.dir, "agent.watch", "false"))
	s.Require().NoError(Set(s.dir, "log.max_backups", "7"))

	data, err := os.ReadFile(Path(s.dir))
	s.Require().NoError(err)
	var raw map[string]map[string]any
	s.Require().NoError(json.Unmarshal(data, &raw))
	s.Equal("https://collect.example.org/people", raw["sync"]["url"])
	s.Equal(false, raw["agent"]["watch"])
	s.Equal(float64(7), raw["log"]["max_backups"])
	s.NotContains(raw, "store")

	cfg, err := Load(s.dir)
	s.Require().NoError(err)
	s.Equal("https://collect.example.org/people", cfg.Sync.URL)
	s.False(cfg.Agent.Watch)
	s.Equal(7, cfg.Log.MaxBackups)
}

func (s *ConfigSuite) TestEnvOverridesFile() {
	s.Require().NoError(Set(s.dir, "sync.probe", "offline"))
	s.T().Setenv("ROSTER_SYNC_PROBE", "online")
	s.T().Setenv("ROSTER_AGENT_INTERVAL", "90s")

	cfg, err := Load(s.dir)
	s.Require().NoError(err)
	s.Equal("online", cfg.Sync.Probe)
	s.Equal(90*time.Second, cfg.Agent.Interval)

	v, err := Get(s.dir, "sync.probe")
	s.Require().NoError(err)
	s.Equal("online", v)
}

func (s *ConfigSuite) TestSetRejectsInvalid() {
	tests := []struct {
		key, value string
	}{
		{"store.driver", "postgres"},
		{"sync.probe", "ping"},
		{"sync.probe", "health"},
		{"sync.timeout", "soon"},
		{"log.format", "xml"},
		{"agent.watch", "maybe"},
		{"log.max_size_mb", "ten"},
	}
	for _, tt := range tests {
		s.Error(Set(s.dir, tt.key, tt.value), "%s=%s", tt.key, tt.value)
	}
	_, err := os.Stat(Path(s.dir))
	s.True(errors.Is(err, os.ErrNotExist), "nothing should have been written")
}

func (s *ConfigSuite) TestUnknownKey() {
	s.ErrorIs(Set(s.dir, "sync.retries", "3"), ErrUnknownKey)
	_, err := Get(s.dir, "nope")
	s.ErrorIs(err, ErrUnknownKey)
}

func (s *ConfigSuite) TestSettingsListsAllKeys() {
	settings, err := Settings(s.dir)
	s.Require().NoError(err)
	s.Len(settings, len(Keys()))
	s.Equal("127.0.0.1:7788", settings["agent.listen"])
}

func (s *ConfigSuite) TestMalformedFile() {
	s.Require().NoError(os.MkdirAll(s.dir+"/"+db.DataDir, 0755))
	s.Require().NoError(os.WriteFile(Path(s.dir), []byte("{not json"), 0644))
	_, err := Load(s.dir)
	s.Error(err)
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "warn", "error", ""} {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q): %v", name, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for trace")
	}
}
