// Package raftnode wires hashicorp/raft's consensus engine to a
// raft.FSM implementation, providing cluster membership management and
// a synchronous Apply call for the client-facing API server.
//
// @design DS-0401
package raftnode

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
)

// Config configures a Node.
type Config struct {
	// NodeID is the unique node identifier.
	NodeID string

	// BindAddr is the address to bind for Raft communication.
	BindAddr string

	// DataDir is the directory for Raft log/stable/snapshot storage.
	DataDir string

	// Bootstrap indicates if this is the bootstrap node for a new
	// cluster.
	Bootstrap bool

	Logger logger.Logger
}

// Node wraps hashicorp/raft with the configuration this service needs:
// BoltDB-backed log and stable stores, a TCP transport, and an
// hclog.Logger adapter over the house structured logger.
type Node struct {
	raft      *raft.Raft
	transport *raft.NetworkTransport
	fsm       raft.FSM
	config    *raft.Config
	logger    logger.Logger

	logStore      raft.LogStore
	stableStore   raft.StableStore
	snapshotStore raft.SnapshotStore

	leaderCh chan bool
}

// New creates a Node running fsm, optionally bootstrapping a new
// single-node cluster.
func New(cfg Config, fsm raft.FSM) (*Node, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("raftnode: data_dir is required")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("raftnode: create data dir: %w", err)
	}

	raftConfig := raft.DefaultConfig()
	raftConfig.LocalID = raft.ServerID(cfg.NodeID)
	raftConfig.Logger = &hcLogger{logger: cfg.Logger}

	raftConfig.HeartbeatTimeout = 1000 * time.Millisecond
	raftConfig.ElectionTimeout = 1000 * time.Millisecond
	raftConfig.CommitTimeout = 50 * time.Millisecond
	raftConfig.LeaderLeaseTimeout = 500 * time.Millisecond

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("raftnode: resolve bind addr: %w", err)
	}

	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("raftnode: create transport: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-log.db"))
	if err != nil {
		transport.Close()
		return nil, fmt.Errorf("raftnode: create log store: %w", err)
	}

	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-stable.db"))
	if err != nil {
		logStore.Close()
		transport.Close()
		return nil, fmt.Errorf("raftnode: create stable store: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(cfg.DataDir, 3, os.Stderr)
	if err != nil {
		stableStore.Close()
		logStore.Close()
		transport.Close()
		return nil, fmt.Errorf("raftnode: create snapshot store: %w", err)
	}

	leaderCh := make(chan bool, 10)
	raftConfig.NotifyCh = leaderCh

	r, err := raft.NewRaft(raftConfig, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		stableStore.Close()
		logStore.Close()
		transport.Close()
		return nil, fmt.Errorf("raftnode: create raft: %w", err)
	}

	node := &Node{
		raft:          r,
		transport:     transport,
		fsm:           fsm,
		config:        raftConfig,
		logger:        cfg.Logger,
		logStore:      logStore,
		stableStore:   stableStore,
		snapshotStore: snapshotStore,
		leaderCh:      leaderCh,
	}

	if cfg.Bootstrap {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{ID: raft.ServerID(cfg.NodeID), Address: transport.LocalAddr()},
			},
		}
		f := r.BootstrapCluster(configuration)
		if err := f.Error(); err != nil {
			node.Close()
			return nil, fmt.Errorf("raftnode: bootstrap cluster: %w", err)
		}
		cfg.Logger.Info("raft cluster bootstrapped", "node_id", cfg.NodeID, "addr", cfg.BindAddr)
	}

	cfg.Logger.Info("raft node created", "node_id", cfg.NodeID, "bind_addr", cfg.BindAddr, "bootstrap", cfg.Bootstrap)

	return node, nil
}

// Apply submits data as a new log entry and blocks until it is
// committed (or timeout elapses), returning any domain-level error the
// FSM's Apply reported.
func (n *Node) Apply(data []byte, timeout time.Duration) (interface{}, error) {
	f := n.raft.Apply(data, timeout)
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("raftnode: apply: %w", err)
	}
	if resp := f.Response(); resp != nil {
		if respErr, ok := resp.(error); ok {
			return nil, respErr
		}
		return resp, nil
	}
	return nil, nil
}

// IsLeader reports whether this node currently holds Raft leadership.
func (n *Node) IsLeader() bool {
	return n.raft.State() == raft.Leader
}

// Leader returns the current leader's transport address.
func (n *Node) Leader() string {
	addr, _ := n.raft.LeaderWithID()
	return string(addr)
}

// LeaderID returns the current leader's node ID.
func (n *Node) LeaderID() string {
	_, id := n.raft.LeaderWithID()
	return string(id)
}

// AddVoter adds a voting member to the cluster.
func (n *Node) AddVoter(nodeID, addr string, timeout time.Duration) error {
	f := n.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(addr), 0, timeout)
	if err := f.Error(); err != nil {
		return fmt.Errorf("raftnode: add voter: %w", err)
	}
	return nil
}

// RemoveServer removes a member from the cluster.
func (n *Node) RemoveServer(nodeID string, timeout time.Duration) error {
	f := n.raft.RemoveServer(raft.ServerID(nodeID), 0, timeout)
	if err := f.Error(); err != nil {
		return fmt.Errorf("raftnode: remove server: %w", err)
	}
	return nil
}

// Snapshot triggers an out-of-band snapshot.
func (n *Node) Snapshot() error {
	f := n.raft.Snapshot()
	if err := f.Error(); err != nil {
		return fmt.Errorf("raftnode: snapshot: %w", err)
	}
	return nil
}

// GetConfiguration returns the current cluster configuration.
func (n *Node) GetConfiguration() (*raft.Configuration, error) {
	f := n.raft.GetConfiguration()
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("raftnode: get configuration: %w", err)
	}
	cfg := f.Configuration()
	return &cfg, nil
}

// LeaderCh notifies on leadership changes.
func (n *Node) LeaderCh() <-chan bool {
	return n.leaderCh
}

// Stats returns Raft runtime statistics.
func (n *Node) Stats() map[string]string {
	return n.raft.Stats()
}

// Close gracefully shuts down the node and its underlying stores.
func (n *Node) Close() error {
	n.logger.Info("shutting down raft node")

	if err := n.raft.Shutdown().Error(); err != nil {
		n.logger.Error("raft shutdown failed", "error", err)
	}

	if s, ok := n.stableStore.(*raftboltdb.BoltStore); ok {
		if err := s.Close(); err != nil {
			n.logger.Error("close stable store failed", "error", err)
		}
	}
	if s, ok := n.logStore.(*raftboltdb.BoltStore); ok {
		if err := s.Close(); err != nil {
			n.logger.Error("close log store failed", "error", err)
		}
	}
	if err := n.transport.Close(); err != nil {
		n.logger.Error("close transport failed", "error", err)
	}

	close(n.leaderCh)

	n.logger.Info("raft node shutdown complete")
	return nil
}
