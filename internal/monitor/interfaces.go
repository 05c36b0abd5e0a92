package monitor

import (
	"context"

	"github.com/Adda-Baaj/solcast-pv/pkg/accounts"
	"github.com/Adda-Baaj/solcast-pv/pkg/publishers"
	"github.com/Adda-Baaj/solcast-pv/pkg/solcast"
)

// SiteSource is the part of the Solcast client a poll pass needs.
type SiteSource interface {
	GetRateLimitStatus(ctx context.Context) (solcast.RateLimit, error)
	GetRooftopSites(ctx context.Context) ([]solcast.RooftopSite, error)
}

// Connector opens a scoped source for an account, runs fn, and releases the source afterwards.
type Connector func(ctx context.Context, acct accounts.Account, fn func(context.Context, SiteSource) error) error

// EventPublisher publishes events downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which site snapshots were already published.
type Deduper interface {
	SeenSnapshot(key, fingerprint string) (bool, error)
	MarkSnapshot(key, fingerprint string) error
}
