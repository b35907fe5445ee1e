package snapshotarchive

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/duskraft/mrstate-go/internal/telemetry/logger"
	"github.com/duskraft/mrstate-go/internal/telemetry/metric"
	"github.com/duskraft/mrstate-go/pkg/crypto/adaptive"
)

// ErrNotFound indicates no archived payload exists at the requested log
// index.
var ErrNotFound = errors.New("snapshotarchive: not found")

// additionalData binds every encrypted payload to the archive's purpose,
// so a ciphertext cannot be silently replayed into an unrelated context.
var additionalData = []byte("mrstate-snapshot-archive")

// Config configures an Archive.
type Config struct {
	// Dir is the Badger data directory backing the archive.
	Dir string

	// EncryptionKey optionally enables at-rest encryption of archived
	// payloads via pkg/crypto/adaptive. When set it must be 16, 24, or 32
	// bytes on amd64 and arm64 (AES-GCM), and exactly 32 bytes on other
	// architectures (ChaCha20-Poly1305).
	EncryptionKey []byte

	Logger  logger.Logger
	Metrics *metric.Registry
}

// Archive stores snapshot payloads keyed by log index, purely for
// operator diagnostics.
type Archive struct {
	db      *badger.DB
	cipher  adaptive.Cipher
	logger  logger.Logger
	metrics *metric.Registry
}

// Open opens (or creates) the archive at cfg.Dir.
func Open(cfg Config) (*Archive, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshotarchive: dir is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	opts := badger.DefaultOptions(cfg.Dir).WithLogger(&badgerLogger{logger: cfg.Logger})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("snapshotarchive: open: %w", err)
	}

	var c adaptive.Cipher
	if len(cfg.EncryptionKey) > 0 {
		c, err = adaptive.New(cfg.EncryptionKey)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("snapshotarchive: init cipher: %w", err)
		}
	}

	return &Archive{db: db, cipher: c, logger: cfg.Logger, metrics: cfg.Metrics}, nil
}

// Put archives payload under logIndex, overwriting any prior entry at
// the same index.
func (a *Archive) Put(logIndex uint64, payload []byte) error {
	data := payload
	if a.cipher != nil {
		ciphertext, err := a.cipher.Encrypt(payload, additionalData)
		if err != nil {
			a.incErrors()
			return fmt.Errorf("snapshotarchive: encrypt: %w", err)
		}
		data = ciphertext
	}

	key := indexKey(logIndex)
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		a.incErrors()
		return fmt.Errorf("snapshotarchive: put: %w", err)
	}

	if a.metrics != nil {
		a.metrics.ArchiveWrites.Inc()
		a.updateSizeMetric()
	}
	a.logger.Debug("archived snapshot payload", "log_index", logIndex, "bytes", len(payload))
	return nil
}

// updateSizeMetric refreshes ArchiveBytes from Badger's own LSM+value-log
// size accounting, the same source internal/storage/badger.go's Stats
// used.
func (a *Archive) updateSizeMetric() {
	lsm, vlog := a.db.Size()
	a.metrics.ArchiveBytes.Set(float64(lsm + vlog))
}

// Get retrieves the payload archived at logIndex, decrypting it if the
// archive was opened with an encryption key.
func (a *Archive) Get(logIndex uint64) ([]byte, error) {
	var data []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(logIndex))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.incErrors()
		}
		return nil, err
	}

	if a.cipher != nil {
		plaintext, err := a.cipher.Decrypt(data, additionalData)
		if err != nil {
			a.incErrors()
			return nil, fmt.Errorf("snapshotarchive: decrypt: %w", err)
		}
		return plaintext, nil
	}
	return data, nil
}

// Prune deletes every archived entry with a log index strictly less
// than keepFrom, bounding the archive's disk footprint to the operator's
// configured retention count.
func (a *Archive) Prune(keepFrom uint64) error {
	err := a.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if len(key) != 8 {
				continue
			}
			if binary.BigEndian.Uint64(key) < keepFrom {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		a.incErrors()
		return err
	}

	if a.metrics != nil {
		a.updateSizeMetric()
	}
	return nil
}

// Close shuts down the underlying Badger database.
func (a *Archive) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("snapshotarchive: close: %w", err)
	}
	return nil
}

func (a *Archive) incErrors() {
	if a.metrics != nil {
		a.metrics.ArchiveErrors.Inc()
	}
}

func indexKey(logIndex uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, logIndex)
	return key
}

// badgerLogger adapts the house structured logger to Badger's Logger
// interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
