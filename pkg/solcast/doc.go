// Package solcast is a small client for the Solcast rooftop PV API.
//
// Failures are reported as *Error values. Use errors.Is with ErrAuthentication,
// ErrConnection or ErrResults to tell them apart; every *Error also matches ErrGeneric.
//
//	err := solcast.WithClient(ctx, token, func(ctx context.Context, c *solcast.Client) error {
//		sites, err := c.GetRooftopSites(ctx)
//		...
//	})
package solcast
