package config

import "errors"

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStateMachine(&cfg.StateMachine); err != nil {
		return err
	}
	if err := verifyCluster(&cfg.Cluster); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if cfg.HTTP.RateLimitPerSec <= 0 {
		return errors.New("server.http.rate_limit_per_sec must be positive")
	}
	if cfg.HTTP.RateLimitBurst < 1 {
		return errors.New("server.http.rate_limit_burst must be at least 1")
	}
	return nil
}

func verifyStateMachine(cfg *StateMachineSection) error {
	if cfg.SnapshotWindowSize < 1 {
		return errors.New("state_machine.snapshot_window_size must be at least 1")
	}
	if cfg.CommittedResultWindowSize < 1 {
		return errors.New("state_machine.committed_result_window_size must be at least 1")
	}
	return nil
}

func verifyCluster(cfg *ClusterSection) error {
	if cfg.DataDir == "" {
		return errors.New("cluster.data_dir is required")
	}
	if cfg.BindAddr == "" {
		return errors.New("cluster.bind_addr is required")
	}
	return nil
}
