package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (RDSTREAM_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("address", os.Getenv("RDSTREAM_ADDRESS"), &cfg.Address)
	s.setString("metrics-addr", os.Getenv("RDSTREAM_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("stop-file", os.Getenv("RDSTREAM_STOP_FILE"), &cfg.StopFile)
	s.setString("snapshot-dir", os.Getenv("RDSTREAM_SNAPSHOT_DIR"), &cfg.SnapshotDir)
	s.setString("log-level", os.Getenv("RDSTREAM_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("dial-timeout", os.Getenv("RDSTREAM_DIAL_TIMEOUT"), &cfg.DialTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", os.Getenv("RDSTREAM_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-min", os.Getenv("RDSTREAM_RECONNECT_MIN"), &cfg.ReconnectMin); err != nil {
		return err
	}
	if err := s.setDuration("reconnect-max", os.Getenv("RDSTREAM_RECONNECT_MAX"), &cfg.ReconnectMax); err != nil {
		return err
	}

	if err := s.setIntFromString("read-buffer", os.Getenv("RDSTREAM_READ_BUFFER_SIZE"), &cfg.ReadBufferSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-buffered", os.Getenv("RDSTREAM_MAX_BUFFERED_BYTES"), &cfg.MaxBufferedBytes); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-size", os.Getenv("RDSTREAM_EVENT_QUEUE_SIZE"), &cfg.EventQueueSize); err != nil {
		return err
	}
	if err := s.setIntFromString("snapshot-every", os.Getenv("RDSTREAM_SNAPSHOT_EVERY"), &cfg.SnapshotEvery); err != nil {
		return err
	}
	if err := s.setIntFromString("stats-every", os.Getenv("RDSTREAM_STATS_EVERY"), &cfg.StatsEvery); err != nil {
		return err
	}

	s.setBoolFromString("reconnect", os.Getenv("RDSTREAM_RECONNECT"), &cfg.Reconnect)

	return nil
}
