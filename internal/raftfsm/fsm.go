// Package raftfsm adapts internal/statemachine's hook set to
// hashicorp/raft's narrower raft.FSM interface (Apply/Snapshot/Restore).
//
// @design DS-0401
package raftfsm

import (
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/raft"

	"github.com/duskraft/mrstate-go/internal/core/domain"
	"github.com/duskraft/mrstate-go/internal/statemachine"
	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
)

// Adapter implements raft.FSM by delegating every call to a
// statemachine.StateMachine. It owns no domain state itself.
type Adapter struct {
	sm     *statemachine.StateMachine
	logger logger.Logger
}

// New wraps sm so it can be handed to raft.NewRaft as the raft.FSM.
func New(sm *statemachine.StateMachine, log logger.Logger) *Adapter {
	if log == nil {
		log = logger.Default()
	}
	return &Adapter{sm: sm, logger: log}
}

// StateMachine returns the wrapped state machine, for use by the
// client-facing API server that needs to read committed map-reduce
// results outside the Raft apply path.
func (a *Adapter) StateMachine() *statemachine.StateMachine {
	return a.sm
}

// Apply decodes and commits a single Raft log entry. A corrupt or
// unrecognized payload is unrecoverable — every replica must apply the
// same sequence of entries to stay consistent — so it panics rather
// than returning, mirroring the reference implementation's treatment of
// decode failure as fatal. A domain-level failure (an unknown map or
// reduce operation named in an otherwise well-formed entry) is
// recoverable: it is returned as the apply future's response so the
// submitting caller sees it, without crashing the replica.
func (a *Adapter) Apply(log *raft.Log) interface{} {
	result, err := a.sm.Commit(log.Index, log.Data)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptPayload) || errors.Is(err, domain.ErrUnknownPayloadType) {
			a.logger.Error("FATAL: commit failed on unrecoverable payload error",
				"error", err, "log_index", log.Index, "log_term", log.Term)
			panic(fmt.Sprintf("raftfsm.Apply: commit failed at index=%d: %v", log.Index, err))
		}
		return err
	}
	return result
}

// Snapshot captures the current store as of the last committed index
// and returns a raft.FSMSnapshot that serializes it with the text
// grammar from internal/statemachine, prefixed with the originating log
// index so Restore can recover it without out-of-band metadata.
func (a *Adapter) Snapshot() (raft.FSMSnapshot, error) {
	meta := statemachine.SnapshotMeta{LastLogIndex: a.sm.LastCommitIndex()}

	done := make(chan error, 1)
	a.sm.CreateSnapshot(meta, func(err error) { done <- err })
	if err := <-done; err != nil {
		return nil, err
	}

	data, _, err := a.sm.ReadSnapshotObject(meta, 0)
	if err != nil {
		return nil, err
	}

	return &fsmSnapshot{index: meta.LastLogIndex, data: data}, nil
}

// Restore replaces the live store with the contents of a snapshot
// produced by Persist.
func (a *Adapter) Restore(r io.ReadCloser) error {
	defer r.Close()

	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("raftfsm: create gzip reader: %w", err)
	}
	defer gzReader.Close()

	raw, err := io.ReadAll(gzReader)
	if err != nil {
		return fmt.Errorf("raftfsm: read snapshot: %w", err)
	}
	if len(raw) < 8 {
		return fmt.Errorf("raftfsm: truncated snapshot: %d bytes", len(raw))
	}

	index := binary.BigEndian.Uint64(raw[:8])
	meta := statemachine.SnapshotMeta{LastLogIndex: index}

	if err := a.sm.SaveSnapshotObject(meta, 0, raw[8:]); err != nil {
		return fmt.Errorf("raftfsm: save snapshot object: %w", err)
	}
	if err := a.sm.ApplySnapshot(meta); err != nil {
		return fmt.Errorf("raftfsm: apply snapshot: %w", err)
	}

	a.logger.Info("state machine restored from snapshot", "last_log_index", index)
	return nil
}

// fsmSnapshot implements raft.FSMSnapshot over a single serialized
// key-value store payload.
type fsmSnapshot struct {
	index uint64
	data  []byte
}

// Persist writes the snapshot to sink as an 8-byte big-endian log index
// followed by the serialized store, gzip-compressed end to end.
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		gzWriter := gzip.NewWriter(sink)
		defer gzWriter.Close()

		var header [8]byte
		binary.BigEndian.PutUint64(header[:], s.index)

		if _, err := gzWriter.Write(header[:]); err != nil {
			return fmt.Errorf("write snapshot header: %w", err)
		}
		if _, err := gzWriter.Write(s.data); err != nil {
			return fmt.Errorf("write snapshot body: %w", err)
		}
		return gzWriter.Close()
	}()

	if err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

// Release is a no-op: fsmSnapshot holds no resources beyond an
// in-memory byte slice.
func (s *fsmSnapshot) Release() {}
