package statemachine

import (
	"strconv"
	"strings"

	"github.com/duskraft/mrstate-go/internal/core/domain"
	"github.com/duskraft/mrstate-go/internal/kvstore"
)

// SnapshotMeta identifies a point-in-time snapshot by the Raft log
// coordinates it was taken at. It is the Go analogue of NuRaft's
// snapshot object; internal/raftfsm translates between this and
// hashicorp/raft's raft.SnapshotMeta.
type SnapshotMeta struct {
	LastLogIndex uint64
	LastLogTerm  uint64
}

// snapshotContext pairs a SnapshotMeta with the key-value store state
// captured at that point. Unlike the reference implementation, which
// also carries a ptr<snapshot> for NuRaft's own bookkeeping, this
// struct only needs to remember what this package is responsible for.
type snapshotContext struct {
	meta  SnapshotMeta
	store *kvstore.Store
}

// CreateSnapshot captures the current store under meta and retains it in
// the bounded snapshot window, evicting the oldest entry once the
// window size is exceeded. If the StateMachine was constructed with
// Options.AsyncSnapshot, the capture runs on a separate goroutine and
// done is invoked from it; otherwise done is invoked synchronously
// before CreateSnapshot returns.
func (sm *StateMachine) CreateSnapshot(meta SnapshotMeta, done func(error)) {
	if !sm.asyncSnapshot {
		sm.createSnapshotInternal(meta)
		sm.logger.Info("snapshot created synchronously", "last_log_index", meta.LastLogIndex, "last_log_term", meta.LastLogTerm)
		done(nil)
		return
	}

	go func() {
		sm.createSnapshotInternal(meta)
		sm.logger.Info("snapshot created asynchronously", "last_log_index", meta.LastLogIndex, "last_log_term", meta.LastLogTerm)
		done(nil)
	}()
}

func (sm *StateMachine) createSnapshotInternal(meta SnapshotMeta) {
	sm.snapshotsLock.Lock()
	captured := sm.store.Clone()
	sm.snapshots[meta.LastLogIndex] = &snapshotContext{
		meta:  meta,
		store: captured,
	}
	sm.snapshotOrder = append(sm.snapshotOrder, meta.LastLogIndex)

	for len(sm.snapshotOrder) > sm.snapshotWindowSize {
		oldest := sm.snapshotOrder[0]
		sm.snapshotOrder = sm.snapshotOrder[1:]
		delete(sm.snapshots, oldest)
		if sm.metrics != nil {
			sm.metrics.SnapshotsEvicted.Inc()
		}
	}
	if sm.metrics != nil {
		sm.metrics.SnapshotsCreated.Inc()
	}
	sm.snapshotsLock.Unlock()

	sm.archiveSnapshot(meta, captured)
}

// archiveSnapshot writes captured to the diagnostic snapshot archive, if
// one is configured, and prunes it back to archiveKeep entries. This is
// what carries a snapshot payload past the in-memory window's eviction:
// the archive keeps its own, independently bounded history.
func (sm *StateMachine) archiveSnapshot(meta SnapshotMeta, captured *kvstore.Store) {
	if sm.archive == nil {
		return
	}

	payload := []byte(serializeStore(captured))
	if err := sm.archive.Put(meta.LastLogIndex, payload); err != nil {
		sm.logger.Error("snapshot archive write failed", "log_index", meta.LastLogIndex, "error", err)
		return
	}

	if sm.archiveKeep > 0 {
		var keepFrom uint64
		if meta.LastLogIndex > uint64(sm.archiveKeep-1) {
			keepFrom = meta.LastLogIndex - uint64(sm.archiveKeep-1)
		}
		if err := sm.archive.Prune(keepFrom); err != nil {
			sm.logger.Error("snapshot archive prune failed", "keep_from", keepFrom, "error", err)
		}
	}
}

// ReadSnapshotObject returns the serialized key-value store for the
// snapshot identified by meta. The entire store is transferred as a
// single object (object ID 0); there is no chunking for larger stores,
// matching the reference implementation's "consider splitting it if too
// large" comment left unaddressed.
//
// A snapshot already evicted from the retention window is reported as
// unavailable rather than an error: data_out=nil, is_last=true, matching
// the reference implementation's handling of that case.
func (sm *StateMachine) ReadSnapshotObject(meta SnapshotMeta, objID uint64) (data []byte, isLast bool, err error) {
	sm.snapshotsLock.Lock()
	ctx, ok := sm.snapshots[meta.LastLogIndex]
	sm.snapshotsLock.Unlock()

	if !ok {
		return nil, true, nil
	}
	if objID != 0 {
		return nil, true, nil
	}

	return []byte(serializeStore(ctx.store)), true, nil
}

// SaveSnapshotObject installs a serialized key-value store received from
// a leader into the snapshot context for meta, creating the context if
// this is the first object received for it.
func (sm *StateMachine) SaveSnapshotObject(meta SnapshotMeta, objID uint64, data []byte) error {
	if objID != 0 {
		return nil
	}

	store, err := deserializeStore(string(data))
	if err != nil {
		return err
	}

	sm.snapshotsLock.Lock()
	defer sm.snapshotsLock.Unlock()

	ctx, ok := sm.snapshots[meta.LastLogIndex]
	if !ok {
		ctx = &snapshotContext{meta: meta}
		sm.snapshots[meta.LastLogIndex] = ctx
		sm.snapshotOrder = append(sm.snapshotOrder, meta.LastLogIndex)
	}
	ctx.store = store

	return nil
}

// ApplySnapshot replaces the live key-value store with the contents of
// the snapshot identified by meta.
func (sm *StateMachine) ApplySnapshot(meta SnapshotMeta) error {
	sm.snapshotsLock.Lock()
	ctx, ok := sm.snapshots[meta.LastLogIndex]
	sm.snapshotsLock.Unlock()

	if !ok {
		return domain.ErrSnapshotMissing.WithDetails(strconv.FormatUint(meta.LastLogIndex, 10))
	}

	sm.store = ctx.store.Clone()
	return nil
}

// FreeUserSnapshotContext exists to keep the hook set parallel to the
// reference implementation's. Because ReadSnapshotObject never
// allocates an out-of-band user context here (Go's garbage collector
// owns snapshotContext's lifetime via the snapshots map), there is
// nothing for it to release.
func (sm *StateMachine) FreeUserSnapshotContext() {}

// LastSnapshot returns the metadata of the retained snapshot with the
// largest last log index, or nil if no snapshot is retained.
func (sm *StateMachine) LastSnapshot() *SnapshotMeta {
	sm.snapshotsLock.Lock()
	defer sm.snapshotsLock.Unlock()

	var newest *snapshotContext
	var newestIdx uint64
	for idx, ctx := range sm.snapshots {
		if newest == nil || idx > newestIdx {
			newest, newestIdx = ctx, idx
		}
	}
	if newest == nil {
		return nil
	}
	meta := newest.meta
	return &meta
}

// serializeStore renders store into the text grammar
// "key:val,val,...,;key2:val,...,;" — each entry terminated by a
// semicolon, each value within an entry terminated by a comma. Keys are
// guaranteed at insert time (kvstore.validateKey) never to contain ':',
// ',' or ';', so the grammar round-trips unambiguously.
func serializeStore(s *kvstore.Store) string {
	var sb strings.Builder
	for _, entry := range s.GetAll() {
		sb.WriteString(entry.Key)
		sb.WriteByte(':')
		for _, v := range entry.Values {
			sb.WriteString(strconv.FormatInt(int64(v), 10))
			sb.WriteByte(',')
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// deserializeStore parses the grammar produced by serializeStore back
// into a fresh Store. Malformed value tokens are skipped rather than
// failing the whole parse, matching the reference implementation's
// catch-and-continue behavior.
func deserializeStore(data string) (*kvstore.Store, error) {
	store := kvstore.New()

	for _, entry := range strings.Split(data, ";") {
		if entry == "" {
			continue
		}

		key, rest, found := strings.Cut(entry, ":")
		if !found {
			continue
		}

		var values []int32
		for _, valueStr := range strings.Split(rest, ",") {
			if valueStr == "" {
				continue
			}
			v, err := strconv.ParseInt(valueStr, 10, 32)
			if err != nil {
				continue
			}
			values = append(values, int32(v))
		}

		if err := store.InsertMany(key, values); err != nil {
			return nil, domain.ErrCorruptPayload.WithCause(err)
		}
	}

	return store, nil
}
