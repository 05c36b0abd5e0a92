// Package storage remembers which site snapshots have already been published.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store records the last published fingerprint for each snapshot key.
type Store interface {
	Close() error
	// SeenSnapshot reports whether key was last marked with fingerprint and has not expired.
	SeenSnapshot(key, fingerprint string) (bool, error)
	MarkSnapshot(key, fingerprint string) error
}

// Options controls retention for concrete store implementations.
type Options struct {
	SnapshotTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultSnapshotTTL     = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore never remembers anything, so every snapshot is published.
type noopStore struct{}

func (noopStore) Close() error                             { return nil }
func (noopStore) SeenSnapshot(string, string) (bool, error) { return false, nil }
func (noopStore) MarkSnapshot(string, string) error         { return nil }
