package config

import "time"

// Config is the root configuration for mrstate-server.
type Config struct {
	Server      ServerSection      `koanf:"server"`
	StateMachine StateMachineSection `koanf:"state_machine"`
	Cluster     ClusterSection     `koanf:"cluster"`
	Storage     StorageSection     `koanf:"storage"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures the client-facing API server.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server and its per-client rate limit.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	TLSCertFile       string        `koanf:"tls_cert_file"`
	TLSKeyFile        string        `koanf:"tls_key_file"`
	RateLimitPerSec   float64       `koanf:"rate_limit_per_sec"`
	RateLimitBurst    int           `koanf:"rate_limit_burst"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
}

// StateMachineSection configures the §6 state machine hooks.
type StateMachineSection struct {
	AsyncSnapshotCreation     bool `koanf:"async_snapshot_creation"`
	SnapshotWindowSize        int  `koanf:"snapshot_window_size"`
	CommittedResultWindowSize int  `koanf:"committed_result_window_size"`
}

// ClusterSection configures the Raft collaborator.
type ClusterSection struct {
	NodeID    string   `koanf:"node_id"`
	BindAddr  string   `koanf:"bind_addr"`
	DataDir   string   `koanf:"data_dir"`
	Bootstrap bool     `koanf:"bootstrap"`
	Seeds     []string `koanf:"seeds"`
}

// StorageSection configures the optional diagnostic snapshot archive.
type StorageSection struct {
	ArchiveEnabled   bool   `koanf:"archive_enabled"`
	ArchiveDataDir   string `koanf:"archive_data_dir"`
	ArchiveKeep      int    `koanf:"archive_keep"`
	EncryptionKey    string `koanf:"encryption_key"`
}

// LogSection configures structured logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
