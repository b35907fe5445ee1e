package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr            = "127.0.0.1:5080"
	DefaultRateLimitPerSec     = 50.0
	DefaultRateLimitBurst      = 100
	DefaultReadTimeout         = 5 * time.Second
	DefaultWriteTimeout        = 10 * time.Second

	DefaultSnapshotWindowSize        = 3
	DefaultCommittedResultWindowSize = 3

	DefaultClusterBindAddr = "127.0.0.1:5343"
	DefaultClusterDataDir  = "/var/lib/mrstate-server/raft"

	DefaultArchiveDataDir = "/var/lib/mrstate-server/archive"
	DefaultArchiveKeep    = 3

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				RateLimitPerSec: DefaultRateLimitPerSec,
				RateLimitBurst:  DefaultRateLimitBurst,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
			},
		},
		StateMachine: StateMachineSection{
			AsyncSnapshotCreation:     false,
			SnapshotWindowSize:        DefaultSnapshotWindowSize,
			CommittedResultWindowSize: DefaultCommittedResultWindowSize,
		},
		Cluster: ClusterSection{
			BindAddr: DefaultClusterBindAddr,
			DataDir:  DefaultClusterDataDir,
		},
		Storage: StorageSection{
			ArchiveEnabled: false,
			ArchiveDataDir: DefaultArchiveDataDir,
			ArchiveKeep:    DefaultArchiveKeep,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
