package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	raw, err := openBolt(filepath.Join(t.TempDir(), "nested", "sites.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := raw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreTracksFingerprints(t *testing.T) {
	store := openTestStore(t, Options{})

	seen, err := store.SeenSnapshot("home/abc", "f1")
	if err != nil || seen {
		t.Fatalf("expected unseen snapshot, seen=%v err=%v", seen, err)
	}
	if err := store.MarkSnapshot("home/abc", "f1"); err != nil {
		t.Fatalf("MarkSnapshot: %v", err)
	}
	if seen, err = store.SeenSnapshot("home/abc", "f1"); err != nil || !seen {
		t.Fatalf("expected snapshot seen, got seen=%v err=%v", seen, err)
	}
	if seen, _ = store.SeenSnapshot("home/abc", "f2"); seen {
		t.Fatalf("a changed fingerprint must not be reported as seen")
	}
	if seen, _ = store.SeenSnapshot("other/abc", "f1"); seen {
		t.Fatalf("keys must not share fingerprints")
	}
}

func TestBoltStoreExpiresSnapshots(t *testing.T) {
	store := openTestStore(t, Options{SnapshotTTL: time.Hour, CleanupInterval: time.Minute})
	base := time.Now()
	store.now = func() time.Time { return base }

	if err := store.MarkSnapshot("home/abc", "f1"); err != nil {
		t.Fatalf("MarkSnapshot: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Hour) }
	seen, err := store.SeenSnapshot("home/abc", "f1")
	if err != nil {
		t.Fatalf("SeenSnapshot after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected snapshot to expire")
	}

	err = store.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(snapshotBucket)).Get([]byte("home/abc")); v != nil {
			t.Fatalf("expected cleanup to delete expired key")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestBoltStoreCleanupRemovesConsecutiveExpiredKeys(t *testing.T) {
	store := openTestStore(t, Options{SnapshotTTL: time.Hour, CleanupInterval: time.Minute})
	base := time.Now()
	store.now = func() time.Time { return base }

	keys := []string{"a/1", "a/2", "a/3", "a/4", "a/5"}
	for _, k := range keys {
		if err := store.MarkSnapshot(k, "f"); err != nil {
			t.Fatalf("MarkSnapshot %s: %v", k, err)
		}
	}

	// One fresh key in the middle must survive.
	store.now = func() time.Time { return base.Add(30 * time.Minute) }
	if err := store.MarkSnapshot("a/3", "f"); err != nil {
		t.Fatalf("MarkSnapshot a/3: %v", err)
	}

	later := base.Add(80 * time.Minute)
	store.lastCleanup.Store(base.Unix())
	if err := store.maybeCleanup(later); err != nil {
		t.Fatalf("maybeCleanup: %v", err)
	}

	var remaining []string
	err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(snapshotBucket)).ForEach(func(k, _ []byte) error {
			remaining = append(remaining, string(k))
			return nil
		})
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != "a/3" {
		t.Fatalf("expected only a/3 to remain, got %v", remaining)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkSnapshot("k", "f"); err != nil {
		t.Fatalf("noop MarkSnapshot: %v", err)
	}
	if seen, _ := store.SeenSnapshot("k", "f"); seen {
		t.Fatalf("noop store never reports snapshots as seen")
	}
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}
