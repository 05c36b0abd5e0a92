package solcast

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindsMatchOwnSentinelAndRoot(t *testing.T) {
	sentinels := []*Error{ErrConnection, ErrAuthentication, ErrResults}
	for _, s := range sentinels {
		err := fmt.Errorf("wrapped: %w", newError(s.Kind, "x", nil))
		if !errors.Is(err, s) {
			t.Fatalf("%s error should match its sentinel", s.Kind)
		}
		if !errors.Is(err, ErrGeneric) {
			t.Fatalf("%s error should match the root sentinel", s.Kind)
		}
		for _, other := range sentinels {
			if other != s && errors.Is(err, other) {
				t.Fatalf("%s error must not match %s", s.Kind, other.Kind)
			}
		}
	}
}

func TestErrorPreservesCause(t *testing.T) {
	err := newError(KindConnection, "Timeout occurred while connecting to API.", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if err.Error() != "Timeout occurred while connecting to API.: context deadline exceeded" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
