package snapshotarchive

import (
	"bytes"
	"errors"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	a, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	payload := []byte("Books:100,200,;")
	if err := a.Put(42, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := a.Get(42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get(42) = %q, want %q", got, payload)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	a, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	_, err = a.Get(999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(999) err = %v, want ErrNotFound", err)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	a, err := Open(Config{Dir: t.TempDir(), EncryptionKey: key})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	payload := []byte("Scores:1,-2,3,;")
	if err := a.Put(7, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := a.Get(7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Get(7) = %q, want %q", got, payload)
	}
}

func TestPrune(t *testing.T) {
	a, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	for _, idx := range []uint64{1, 2, 3, 4} {
		if err := a.Put(idx, []byte("payload")); err != nil {
			t.Fatalf("Put(%d): %v", idx, err)
		}
	}

	if err := a.Prune(3); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	if _, err := a.Get(1); !errors.Is(err, ErrNotFound) {
		t.Error("expected index 1 to be pruned")
	}
	if _, err := a.Get(2); !errors.Is(err, ErrNotFound) {
		t.Error("expected index 2 to be pruned")
	}
	if _, err := a.Get(3); err != nil {
		t.Error("expected index 3 to survive pruning")
	}
	if _, err := a.Get(4); err != nil {
		t.Error("expected index 4 to survive pruning")
	}
}
