// Package config handles configuration for the gateway, including
// defaults and an optional JSON overlay file.
package config

// MQTTConfig holds the connection settings for the Meshtastic MQTT bridge.
type MQTTConfig struct {
	Broker      string
	Username    string
	Password    string
	TopicRoot   string
	ChannelName string
}

// SyncConfig tunes the BBS-to-BBS synchronization subsystem.
type SyncConfig struct {
	Enabled         bool
	IntervalMinutes int
	MaxAgeDays      int
}

// JS8CallConfig holds the optional JS8Call API bridge settings.
type JS8CallConfig struct {
	Enabled bool
	Addr    string
}

// Config holds runtime settings for the gateway.
//
// Fields:
//   - NodeID: mesh node id override ("!hex"); normally learned from the transport.
//   - NodeName: operator-facing BBS name used in announcements and menus.
//   - DatabaseDSN: path to the sqlite database file.
//   - MQTT: Meshtastic MQTT bridge settings.
//   - Sync: peer synchronization settings.
//   - JS8Call: optional HF bridge settings.
type Config struct {
	NodeID      string
	NodeName    string
	DatabaseDSN string
	MQTT        MQTTConfig
	Sync        SyncConfig
	JS8Call     JS8CallConfig
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: The MQTT defaults point at the public Meshtastic broker and should
// be overridden for a private mesh.
func (c *Config) LoadDefaults() {
	c.NodeName = "MeshBBS"
	c.DatabaseDSN = "meshbbs.db"
	c.MQTT = MQTTConfig{
		Broker:      "tcp://mqtt.meshtastic.org:1883",
		Username:    "meshdev",
		Password:    "large4cats",
		TopicRoot:   "msh/US",
		ChannelName: "LongFast",
	}
	c.Sync = SyncConfig{
		Enabled:         true,
		IntervalMinutes: 60,
		MaxAgeDays:      7,
	}
	c.JS8Call = JS8CallConfig{
		Enabled: false,
		Addr:    "127.0.0.1:2442",
	}
}

// LoadConfig builds a Config by applying defaults and then overlaying
// values from an optional JSON file. An empty path means defaults only.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
