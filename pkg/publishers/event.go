package publishers

import (
	"time"

	"github.com/Adda-Baaj/solcast-pv/pkg/solcast"
)

// Event kinds.
const (
	KindRooftopSite = "rooftop_site"
	KindRateLimit   = "rate_limit"
)

// Event represents the payload published downstream.
type Event struct {
	Kind        string               `json:"kind"`
	AccountID   string               `json:"account_id"`
	AccountName string               `json:"account_name"`
	Site        *solcast.RooftopSite `json:"site,omitempty"`
	RateLimit   *solcast.RateLimit   `json:"rate_limit,omitempty"`
	CollectedAt time.Time            `json:"collected_at"`
}

// NewSiteEvent constructs an Event for a rooftop site snapshot.
func NewSiteEvent(accountID, accountName string, site solcast.RooftopSite) Event {
	return Event{
		Kind:        KindRooftopSite,
		AccountID:   accountID,
		AccountName: accountName,
		Site:        &site,
		CollectedAt: time.Now().UTC(),
	}
}

// NewRateLimitEvent constructs an Event for a rate limit status snapshot.
func NewRateLimitEvent(accountID, accountName string, limit solcast.RateLimit) Event {
	return Event{
		Kind:        KindRateLimit,
		AccountID:   accountID,
		AccountName: accountName,
		RateLimit:   &limit,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to queue/topic messages.
func (e Event) attributes() map[string]string {
	attrs := make(map[string]string, 3)
	if e.Kind != "" {
		attrs["kind"] = e.Kind
	}
	if e.AccountID != "" {
		attrs["account_id"] = e.AccountID
	}
	if e.Site != nil && e.Site.ResourceID != "" {
		attrs["resource_id"] = e.Site.ResourceID
	}
	return attrs
}
