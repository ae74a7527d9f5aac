package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. Pointer fields distinguish "absent" from
// "explicitly zero" so a partial file overrides only what it names.
type JsonConfig struct {
	NodeID      *string `json:"node_id"`
	NodeName    *string `json:"node_name"`
	DatabaseDSN *string `json:"database_dsn"`

	MQTT *struct {
		Broker      *string `json:"broker"`
		Username    *string `json:"username"`
		Password    *string `json:"password"`
		TopicRoot   *string `json:"topic_root"`
		ChannelName *string `json:"channel_name"`
	} `json:"mqtt"`

	Sync *struct {
		Enabled         *bool `json:"enabled"`
		IntervalMinutes *int  `json:"interval_minutes"`
		MaxAgeDays      *int  `json:"max_age_days"`
	} `json:"sync"`

	JS8Call *struct {
		Enabled *bool   `json:"enabled"`
		Addr    *string `json:"addr"`
	} `json:"js8call"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. An empty path means nothing to load. The caller merges
// these values on top of defaults.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&config.NodeID, c.NodeID)
	setString(&config.NodeName, c.NodeName)
	setString(&config.DatabaseDSN, c.DatabaseDSN)

	if c.MQTT != nil {
		setString(&config.MQTT.Broker, c.MQTT.Broker)
		setString(&config.MQTT.Username, c.MQTT.Username)
		setString(&config.MQTT.Password, c.MQTT.Password)
		setString(&config.MQTT.TopicRoot, c.MQTT.TopicRoot)
		setString(&config.MQTT.ChannelName, c.MQTT.ChannelName)
	}
	if c.Sync != nil {
		setBool(&config.Sync.Enabled, c.Sync.Enabled)
		setInt(&config.Sync.IntervalMinutes, c.Sync.IntervalMinutes)
		setInt(&config.Sync.MaxAgeDays, c.Sync.MaxAgeDays)
	}
	if c.JS8Call != nil {
		setBool(&config.JS8Call.Enabled, c.JS8Call.Enabled)
		setString(&config.JS8Call.Addr, c.JS8Call.Addr)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
