// Package main provides the entry point for mrstate-server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/duskraft/mrstate-go/internal/config"
	"github.com/duskraft/mrstate-go/internal/infra/buildinfo"
	"github.com/duskraft/mrstate-go/internal/infra/confloader"
	"github.com/duskraft/mrstate-go/internal/infra/shutdown"
	"github.com/duskraft/mrstate-go/internal/raftfsm"
	"github.com/duskraft/mrstate-go/internal/raftnode"
	"github.com/duskraft/mrstate-go/internal/server/apiserver"
	"github.com/duskraft/mrstate-go/internal/statemachine"
	"github.com/duskraft/mrstate-go/internal/storage/snapshotarchive"
	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
	"github.com/duskraft/mrstate-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	log.Info("starting mrstate-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	watcher, err := startConfigWatcher(*configFile, log)
	if err != nil {
		return fmt.Errorf("init config watcher: %w", err)
	}

	metrics := metric.NewRegistry()

	var archive *snapshotarchive.Archive
	if cfg.Storage.ArchiveEnabled {
		archive, err = snapshotarchive.Open(snapshotarchive.Config{
			Dir:           cfg.Storage.ArchiveDataDir,
			EncryptionKey: []byte(cfg.Storage.EncryptionKey),
			Logger:        log,
			Metrics:       metrics,
		})
		if err != nil {
			return fmt.Errorf("init snapshot archive: %w", err)
		}
	}

	smOpts := statemachine.Options{
		AsyncSnapshot:             cfg.StateMachine.AsyncSnapshotCreation,
		SnapshotWindowSize:        cfg.StateMachine.SnapshotWindowSize,
		CommittedResultWindowSize: cfg.StateMachine.CommittedResultWindowSize,
		ArchiveKeep:               cfg.Storage.ArchiveKeep,
		Logger:                    log,
		Metrics:                   metrics,
	}
	if archive != nil {
		smOpts.Archive = archive
	}
	sm := statemachine.New(smOpts)
	fsm := raftfsm.New(sm, log)

	node, err := raftnode.New(raftnode.Config{
		NodeID:    cfg.Cluster.NodeID,
		BindAddr:  cfg.Cluster.BindAddr,
		DataDir:   cfg.Cluster.DataDir,
		Bootstrap: cfg.Cluster.Bootstrap,
		Logger:    log,
	}, fsm)
	if err != nil {
		return fmt.Errorf("init raft node: %w", err)
	}

	router := apiserver.NewRouter(&apiserver.RouterConfig{
		Node:            node,
		SM:              sm,
		Logger:          log,
		ApplyTimeout:    5 * time.Second,
		RateLimitPerSec: cfg.Server.HTTP.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.HTTP.RateLimitBurst,
	})
	httpServer := apiserver.New(
		cfg.Server.HTTP.Addr,
		withMetrics(router, metrics),
		cfg.Server.HTTP.ReadTimeout,
		cfg.Server.HTTP.WriteTimeout,
	)

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Register shutdown hooks. They run in reverse order of registration:
	// raft node, snapshot archive, config watcher, then the HTTP server.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	if watcher != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("stopping config watcher")
			return watcher.Stop()
		})
	}

	if archive != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("closing snapshot archive")
			return archive.Close()
		})
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down raft node")
		return node.Close()
	})

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.Config, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// startConfigWatcher watches configFile for changes and applies the safe
// subset of reloadable fields — currently just log.level — without a
// restart. It returns a nil watcher (not an error) when configFile is
// empty, since there is nothing on disk to watch.
func startConfigWatcher(configFile string, log logger.Logger) (*confloader.Watcher, error) {
	if configFile == "" {
		return nil, nil
	}

	watcher, err := confloader.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(configFile); err != nil {
		return nil, err
	}

	watcher.OnChange(func(path string) {
		reloaded, err := loadConfig(configFile)
		if err != nil {
			log.Error("config hot-reload failed", "path", path, "error", err)
			return
		}
		logger.SetLevel(reloaded.Log.Level)
		log.Info("applied hot-reloaded configuration", "log_level", reloaded.Log.Level)
	})

	watcher.StartAsync()
	return watcher, nil
}

// withMetrics mounts the Prometheus exposition endpoint alongside the
// client-facing API router.
func withMetrics(h http.Handler, metrics *metric.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", h)
	return mux
}
