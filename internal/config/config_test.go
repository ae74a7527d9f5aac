package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "MeshBBS", cfg.NodeName)
	assert.Equal(t, "meshbbs.db", cfg.DatabaseDSN)
	assert.Equal(t, "tcp://mqtt.meshtastic.org:1883", cfg.MQTT.Broker)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, 60, cfg.Sync.IntervalMinutes)
	assert.Equal(t, 7, cfg.Sync.MaxAgeDays)
	assert.False(t, cfg.JS8Call.Enabled)
}

func TestLoadConfig_NoFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "MeshBBS", cfg.NodeName)
}

func TestLoadConfig_PartialOverlayKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"node_name": "Ridge Relay BBS",
		"sync": {"enabled": false},
		"mqtt": {"topic_root": "msh/EU_868"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Ridge Relay BBS", cfg.NodeName)
	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, "msh/EU_868", cfg.MQTT.TopicRoot)

	// unnamed values keep their defaults
	assert.Equal(t, 60, cfg.Sync.IntervalMinutes)
	assert.Equal(t, "tcp://mqtt.meshtastic.org:1883", cfg.MQTT.Broker)
	assert.Equal(t, "LongFast", cfg.MQTT.ChannelName)
	assert.Equal(t, "meshbbs.db", cfg.DatabaseDSN)
}

func TestLoadConfig_FullOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"node_id": "!deadbeef",
		"node_name": "Valley BBS",
		"database_dsn": "/var/lib/meshbbs/bbs.db",
		"mqtt": {
			"broker": "tcp://10.0.0.5:1883",
			"username": "bbs",
			"password": "hunter2",
			"topic_root": "msh/private",
			"channel_name": "MediumSlow"
		},
		"sync": {"enabled": true, "interval_minutes": 30, "max_age_days": 14},
		"js8call": {"enabled": true, "addr": "127.0.0.1:2442"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "!deadbeef", cfg.NodeID)
	assert.Equal(t, "Valley BBS", cfg.NodeName)
	assert.Equal(t, "/var/lib/meshbbs/bbs.db", cfg.DatabaseDSN)
	assert.Equal(t, "tcp://10.0.0.5:1883", cfg.MQTT.Broker)
	assert.Equal(t, "MediumSlow", cfg.MQTT.ChannelName)
	assert.Equal(t, 30, cfg.Sync.IntervalMinutes)
	assert.Equal(t, 14, cfg.Sync.MaxAgeDays)
	assert.True(t, cfg.JS8Call.Enabled)
	assert.Equal(t, "127.0.0.1:2442", cfg.JS8Call.Addr)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
