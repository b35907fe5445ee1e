package statemachine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/duskraft/mrstate-go/internal/codec"
	"github.com/duskraft/mrstate-go/internal/core/domain"
	"github.com/duskraft/mrstate-go/internal/kvstore"
	"github.com/duskraft/mrstate-go/internal/mapreduce"
	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
	"github.com/duskraft/mrstate-go/internal/telemetry/metric"
)

// DefaultWindowSize is used for both the snapshot retention window and
// the committed-result index window when a StateMachine is constructed
// with a window size of zero.
const DefaultWindowSize = 3

// SnapshotArchiver persists an additional, non-authoritative copy of a
// snapshot payload for operator diagnostics (internal/storage/snapshotarchive
// implements this). It never participates in ApplySnapshot/
// ReadSnapshotObject correctness; the in-memory snapshot window remains
// the sole source of truth for the Raft collaborator.
type SnapshotArchiver interface {
	Put(logIndex uint64, payload []byte) error
	Prune(keepFrom uint64) error
}

// Options configures a StateMachine.
type Options struct {
	// AsyncSnapshot, if true, runs CreateSnapshot's state capture on a
	// separate goroutine and reports completion via the done callback
	// instead of blocking the caller.
	AsyncSnapshot bool

	// SnapshotWindowSize bounds how many snapshot contexts are retained.
	// Zero means DefaultWindowSize.
	SnapshotWindowSize int

	// CommittedResultWindowSize bounds how many map-reduce results are
	// retained in the committed-result index. Zero means
	// DefaultWindowSize.
	CommittedResultWindowSize int

	// Archive, if set, receives a copy of every snapshot payload created,
	// including ones later evicted from the in-memory window above.
	Archive SnapshotArchiver

	// ArchiveKeep bounds how many of the most recent archived snapshots
	// Archive retains. Zero disables pruning (retain everything).
	ArchiveKeep int

	Logger  logger.Logger
	Metrics *metric.Registry
}

// StateMachine is the deterministic consumer of committed log entries.
// It owns the key-value store, the committed map-reduce result index,
// and the bounded snapshot window. All mutation of the store happens
// exclusively through Commit; the store has no lock of its own because
// the commit path is serialized upstream by the Raft collaborator (see
// internal/raftfsm). Snapshot creation and read/save may run
// concurrently with commits, so both the snapshot map and the result
// index are guarded by snapshotsLock, mirroring the single mutex the
// reference implementation uses for both.
type StateMachine struct {
	store *kvstore.Store

	lastCommittedIndex atomic.Uint64

	snapshotsLock             sync.Mutex
	snapshots                 map[uint64]*snapshotContext
	snapshotOrder             []uint64
	snapshotWindowSize        int
	results                   map[uint64]domain.MapReduceResult
	resultOrder               []uint64
	committedResultWindowSize int

	asyncSnapshot bool
	archive       SnapshotArchiver
	archiveKeep   int
	logger        logger.Logger
	metrics       *metric.Registry
}

// New constructs an empty StateMachine.
func New(opts Options) *StateMachine {
	snapWindow := opts.SnapshotWindowSize
	if snapWindow <= 0 {
		snapWindow = DefaultWindowSize
	}
	resultWindow := opts.CommittedResultWindowSize
	if resultWindow <= 0 {
		resultWindow = DefaultWindowSize
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}

	return &StateMachine{
		store:                     kvstore.New(),
		snapshots:                 make(map[uint64]*snapshotContext),
		snapshotWindowSize:        snapWindow,
		results:                   make(map[uint64]domain.MapReduceResult),
		committedResultWindowSize: resultWindow,
		asyncSnapshot:             opts.AsyncSnapshot,
		archive:                   opts.Archive,
		archiveKeep:               opts.ArchiveKeep,
		logger:                    log,
		metrics:                   opts.Metrics,
	}
}

// PreCommit is a no-op: every payload variant is applied directly in
// Commit, so there is nothing to stage ahead of time.
func (sm *StateMachine) PreCommit(logIndex uint64, data []byte) error {
	return nil
}

// Commit decodes data with the log codec and applies it to the key-value
// store, advancing lastCommittedIndex. A decode failure is returned
// unwrapped as domain.ErrCorruptPayload/domain.ErrUnknownPayloadType; the
// caller (internal/raftfsm) treats that as fatal, since a replica that
// cannot apply a committed entry cannot keep its state consistent with
// the rest of the cluster.
func (sm *StateMachine) Commit(logIndex uint64, data []byte) (domain.CommitResult, error) {
	payload, err := codec.Decode(data)
	if err != nil {
		sm.incCommitErrors()
		sm.incCodecDecodeFailures()
		sm.logger.Error("commit: corrupt log entry", "log_index", logIndex, "error", err)
		return domain.CommitResult{}, err
	}

	hasMapReduce := false

	switch payload.Kind {
	case domain.OpInsertValue:
		if err := sm.store.Insert(payload.Key, payload.Value); err != nil {
			sm.incCommitErrors()
			return domain.CommitResult{}, err
		}

	case domain.OpDeleteValue:
		sm.store.RemoveValue(payload.Key, payload.Value)

	case domain.OpDeleteKey:
		sm.store.RemoveKey(payload.Key)

	case domain.OpMapReduce:
		hasMapReduce = true
		engine := mapreduce.New(sm.store)
		start := time.Now()
		result, err := engine.PerformMapReduce(payload.MapOp, payload.ReduceOp, payload.Keys)
		sm.observeMapReduceDuration(time.Since(start))
		if err != nil {
			sm.incCommitErrors()
			sm.logger.Warn("commit: map-reduce failed", "log_index", logIndex, "map_op", payload.MapOp, "reduce_op", payload.ReduceOp, "error", err)
			return domain.CommitResult{}, err
		}
		sm.addMapReduceResult(logIndex, result)
		sm.incMapReduceInvocations()

	default:
		sm.incCommitErrors()
		return domain.CommitResult{}, domain.ErrUnknownPayloadType.WithDetails(payload.Kind.String())
	}

	sm.lastCommittedIndex.Store(logIndex)
	sm.incCommits()
	sm.logger.Debug("commit applied", "log_index", logIndex, "op", payload.Kind.String())

	return domain.CommitResult{LogIndex: logIndex, HasMapReduce: hasMapReduce}, nil
}

// CommitConfig records a cluster configuration change as committed.
// There is no configuration-specific state in this domain beyond
// advancing the committed index.
func (sm *StateMachine) CommitConfig(logIndex uint64) {
	sm.lastCommittedIndex.Store(logIndex)
}

// Rollback is a no-op, matching PreCommit: nothing is staged ahead of
// Commit that would need to be undone.
func (sm *StateMachine) Rollback(logIndex uint64, data []byte) error {
	return nil
}

// LastCommitIndex returns the highest log index applied so far.
func (sm *StateMachine) LastCommitIndex() uint64 {
	return sm.lastCommittedIndex.Load()
}

// GetValues returns a copy of key's committed value sequence. It is a
// read path used by tests; the client-facing API server does not call it. Callers
// must not invoke it concurrently with Commit/ApplySnapshot, since the
// key-value store has no lock of its own (§5) — the commit path is
// already serialized by the Raft collaborator, so in production this is
// only ever called from that same single-writer goroutine or from a
// quiescent point such as after Restore.
func (sm *StateMachine) GetValues(key string) ([]int32, error) {
	return sm.store.GetValues(key)
}

// GetMapReduceResults returns the result recorded for logIndex, or false
// if no map-reduce entry was committed at that index or it has since
// been evicted from the committed-result window.
func (sm *StateMachine) GetMapReduceResults(logIndex uint64) (domain.MapReduceResult, bool) {
	sm.snapshotsLock.Lock()
	defer sm.snapshotsLock.Unlock()

	result, ok := sm.results[logIndex]
	if !ok {
		return nil, false
	}
	return result.Clone(), true
}

func (sm *StateMachine) addMapReduceResult(logIndex uint64, result domain.MapReduceResult) {
	sm.snapshotsLock.Lock()
	defer sm.snapshotsLock.Unlock()

	sm.results[logIndex] = result
	sm.resultOrder = append(sm.resultOrder, logIndex)

	for len(sm.resultOrder) > sm.committedResultWindowSize {
		oldest := sm.resultOrder[0]
		sm.resultOrder = sm.resultOrder[1:]
		delete(sm.results, oldest)
	}
}

func (sm *StateMachine) incCommits() {
	if sm.metrics != nil {
		sm.metrics.Commits.Inc()
	}
}

func (sm *StateMachine) incCommitErrors() {
	if sm.metrics != nil {
		sm.metrics.CommitErrors.Inc()
	}
}

func (sm *StateMachine) incMapReduceInvocations() {
	if sm.metrics != nil {
		sm.metrics.MapReduceInvocations.Inc()
	}
}

func (sm *StateMachine) incCodecDecodeFailures() {
	if sm.metrics != nil {
		sm.metrics.CodecDecodeFailures.Inc()
	}
}

func (sm *StateMachine) observeMapReduceDuration(d time.Duration) {
	if sm.metrics != nil {
		sm.metrics.MapReduceDuration.Observe(d.Seconds())
	}
}
