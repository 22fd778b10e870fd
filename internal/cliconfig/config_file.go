package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Address          string `toml:"address"`
	DialTimeout      string `toml:"dial_timeout"`
	ReadBufferSize   int    `toml:"read_buffer_size"`
	MaxBufferedBytes int    `toml:"max_buffered_bytes"`
	EventQueueSize   int    `toml:"event_queue_size"`
	ShutdownTimeout  string `toml:"shutdown_timeout"`
	Reconnect        *bool  `toml:"reconnect"`
	ReconnectMin     string `toml:"reconnect_min"`
	ReconnectMax     string `toml:"reconnect_max"`
	MetricsAddr      string `toml:"metrics_addr"`
	StopFile         string `toml:"stop_file"`
	SnapshotDir      string `toml:"snapshot_dir"`
	SnapshotEvery    int    `toml:"snapshot_every"`
	StatsEvery       int    `toml:"stats_every"`
	LogLevel         string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.rdstream/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".rdstream", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("address", fc.Address, &cfg.Address)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("stop-file", fc.StopFile, &cfg.StopFile)
	s.setString("snapshot-dir", fc.SnapshotDir, &cfg.SnapshotDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("dial-timeout", fc.DialTimeout, &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-min", fc.ReconnectMin, &cfg.ReconnectMin); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-max", fc.ReconnectMax, &cfg.ReconnectMax); err != nil {
		return err
	}

	s.setInt("read-buffer", fc.ReadBufferSize, &cfg.ReadBufferSize)
	s.setInt("max-buffered", fc.MaxBufferedBytes, &cfg.MaxBufferedBytes)
	s.setInt("queue-size", fc.EventQueueSize, &cfg.EventQueueSize)
	s.setInt("snapshot-every", fc.SnapshotEvery, &cfg.SnapshotEvery)
	s.setInt("stats-every", fc.StatsEvery, &cfg.StatsEvery)

	s.setBool("reconnect", fc.Reconnect, &cfg.Reconnect)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
