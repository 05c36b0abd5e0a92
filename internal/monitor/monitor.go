package monitor

import (
	"context"
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Adda-Baaj/solcast-pv/internal/logger"
	"github.com/Adda-Baaj/solcast-pv/pkg/accounts"
	"github.com/Adda-Baaj/solcast-pv/pkg/publishers"
	"github.com/Adda-Baaj/solcast-pv/pkg/solcast"
)

// Service runs poll passes over a set of Solcast accounts.
type Service struct {
	connect   Connector
	publisher EventPublisher
	deduper   Deduper
	log       logger.Logger
}

// NewService wires a poll service. A nil connector uses the Solcast API.
func NewService(connect Connector, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if connect == nil {
		connect = SolcastConnector(log)
	}
	return &Service{
		connect:   connect,
		publisher: pub,
		deduper:   deduper,
		log:       log,
	}
}

// SolcastConnector returns a Connector backed by a scoped solcast.Client per account.
func SolcastConnector(log logger.Logger) Connector {
	return func(ctx context.Context, acct accounts.Account, fn func(context.Context, SiteSource) error) error {
		token, err := acct.Token()
		if err != nil {
			return err
		}
		opts := []solcast.Option{solcast.WithTimeout(acct.RequestTimeout())}
		if log != nil {
			opts = append(opts, solcast.WithLogger(log))
		}
		return solcast.WithClient(ctx, token, func(ctx context.Context, c *solcast.Client) error {
			return fn(ctx, c)
		}, opts...)
	}
}

// Run executes one poll pass for every account and joins the per-account errors.
func (s *Service) Run(ctx context.Context, accts []accounts.Account) error {
	if s == nil || s.connect == nil {
		return fmt.Errorf("monitor service is not initialized")
	}
	if len(accts) == 0 {
		return fmt.Errorf("no accounts configured for polling")
	}
	return errors.Join(s.runAll(ctx, accts)...)
}

func (s *Service) runAll(ctx context.Context, accts []accounts.Account) []error {
	errs := make([]error, 0, len(accts))
	for _, acct := range accts {
		if ctx.Err() != nil {
			break
		}
		if err := s.runAccount(ctx, acct); err != nil {
			errs = append(errs, err)
			fields := errorFields(err)
			fields["account_id"] = acct.ID
			s.log.ErrorObj("account poll failed", "account_error", fields)
		}
	}
	return errs
}

func (s *Service) runAccount(ctx context.Context, acct accounts.Account) error {
	var published int
	return s.connect(ctx, acct, func(ctx context.Context, src SiteSource) error {
		limit, err := src.GetRateLimitStatus(ctx)
		if err != nil {
			return fmt.Errorf("fetch rate limit for account %s: %w", acct.ID, err)
		}
		if limit.RemainingDaily <= 0 {
			s.log.WarnObj("daily API allowance exhausted", "rate_limit", map[string]any{
				"account_id":     acct.ID,
				"daily_limit":    limit.DailyLimit,
				"consumed_daily": limit.ConsumedDaily,
			})
		}

		var errs []error
		if _, err := s.publish(ctx, publishers.NewRateLimitEvent(acct.ID, acct.Name, limit)); err != nil {
			errs = append(errs, err)
		}

		sites, err := src.GetRooftopSites(ctx)
		if err != nil {
			return errors.Join(append(errs, fmt.Errorf("fetch rooftop sites for account %s: %w", acct.ID, err))...)
		}

		for _, site := range s.filterNewSites(acct, sites) {
			ok, err := s.publish(ctx, publishers.NewSiteEvent(acct.ID, acct.Name, site.RooftopSite))
			if err != nil {
				errs = append(errs, fmt.Errorf("site %s: %w", site.ResourceID, err))
			}
			if !ok {
				continue
			}
			published++
			if s.deduper == nil {
				continue
			}
			if err := s.deduper.MarkSnapshot(site.key, site.fingerprint); err != nil {
				s.log.WarnObj("snapshot mark failed", "dedupe_error", map[string]any{
					"account_id":  acct.ID,
					"resource_id": site.ResourceID,
					"error":       err.Error(),
				})
			}
		}

		s.log.InfoObj("account poll completed", "account_result", map[string]any{
			"account_id":      acct.ID,
			"sites_total":     len(sites),
			"sites_published": published,
			"remaining_daily": limit.RemainingDaily,
		})
		return errors.Join(errs...)
	})
}

// publish reports whether at least one sink accepted the event.
func (s *Service) publish(ctx context.Context, evt publishers.Event) (bool, error) {
	if s.publisher == nil {
		return false, nil
	}
	n, err := s.publisher.Publish(ctx, evt)
	return n > 0, err
}

type siteSnapshot struct {
	solcast.RooftopSite
	key         string
	fingerprint string
}

// filterNewSites keeps sites whose current record differs from the last published one.
// Sites whose lookup fails are kept.
func (s *Service) filterNewSites(acct accounts.Account, sites []solcast.RooftopSite) []siteSnapshot {
	out := make([]siteSnapshot, 0, len(sites))
	for _, site := range sites {
		snap := siteSnapshot{
			RooftopSite: site,
			key:         acct.ID + "/" + site.ResourceID,
			fingerprint: fingerprint(site),
		}
		if s.deduper != nil {
			seen, err := s.deduper.SeenSnapshot(snap.key, snap.fingerprint)
			if err != nil {
				s.log.WarnObj("snapshot lookup failed", "dedupe_error", map[string]any{
					"account_id":  acct.ID,
					"resource_id": site.ResourceID,
					"error":       err.Error(),
				})
			} else if seen {
				continue
			}
		}
		out = append(out, snap)
	}
	return out
}

func fingerprint(site solcast.RooftopSite) string {
	raw, err := json.Marshal(site)
	if err != nil {
		raw = []byte(fmt.Sprintf("%+v", site))
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}
