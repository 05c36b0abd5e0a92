package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Adda-Baaj/solcast-pv/pkg/solcast"
)

// Report kinds understood by Report.
const (
	ReportSites     = "sites"
	ReportRateLimit = "ratelimit"
)

// Report fetches one resource for token and writes it to w as indented JSON.
func Report(ctx context.Context, w io.Writer, token, kind string, opts ...solcast.Option) error {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != ReportSites && kind != ReportRateLimit {
		return fmt.Errorf("unknown report %q (want %s or %s)", kind, ReportSites, ReportRateLimit)
	}

	return solcast.WithClient(ctx, token, func(ctx context.Context, c *solcast.Client) error {
		var out any
		switch kind {
		case ReportSites:
			sites, err := c.GetRooftopSites(ctx)
			if err != nil {
				return err
			}
			out = map[string]any{"sites": sites}
		case ReportRateLimit:
			limit, err := c.GetRateLimitStatus(ctx)
			if err != nil {
				return err
			}
			out = limit
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}, opts...)
}
