package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bnkchallenge/internal/modules/location/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "denied", in: fmt.Errorf("gpsd: %w", domain.ErrPermissionDenied), want: domain.ErrPermissionDenied},
		{name: "timeout", in: domain.ErrTimeout, want: domain.ErrTimeout},
		{name: "foreign", in: context.Canceled, want: domain.ErrUnknown},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := domain.Classify(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMessageCoversEveryKind(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for _, err := range []error{domain.ErrPermissionDenied, domain.ErrPositionUnavailable, domain.ErrTimeout, domain.ErrUnsupported, domain.ErrUnknown} {
		msg := domain.Message(err)
		if msg == "" {
			t.Fatalf("empty message for %v", err)
		}
		seen[msg] = true
	}
	if len(seen) != 5 {
		t.Fatalf("messages must be distinct, got %d", len(seen))
	}
	if domain.Message(nil) != "" {
		t.Fatalf("nil error must render empty")
	}
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()
	opts := domain.DefaultOptions()
	if !opts.HighAccuracy || opts.Timeout != domain.RequestTimeout || opts.MaximumAge.Milliseconds() != 10000 {
		t.Fatalf("unexpected options %+v", opts)
	}
}
