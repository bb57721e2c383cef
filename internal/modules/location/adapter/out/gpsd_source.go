package out

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/stratoberry/go-gpsd"

	"bnkchallenge/internal/modules/location/domain"
	"bnkchallenge/internal/platform/clock"
)

// GPSDSource reads fixes from a gpsd daemon. Each Acquire opens a watch,
// takes the first TPV report with a 2D or 3D fix, and closes the session.
type GPSDSource struct {
	addr  string
	clock clock.Clock

	mu     sync.Mutex
	cached *domain.GeoPosition
}

func NewGPSDSource(addr string, clk clock.Clock) *GPSDSource {
	return &GPSDSource{addr: addr, clock: clk}
}

func (s *GPSDSource) Kind() domain.SourceKind {
	return domain.SourcePlatformGeolocation
}

func (s *GPSDSource) Acquire(ctx context.Context, opts domain.PositionOptions) (domain.GeoPosition, error) {
	if pos, ok := s.fresh(opts.MaximumAge); ok {
		return pos, nil
	}

	session, err := dialGPSD(ctx, s.addr)
	if err != nil {
		return domain.GeoPosition{}, err
	}

	fixes := make(chan *gpsd.TPVReport, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok || tpv.Mode < gpsd.Mode2D {
			return
		}
		select {
		case fixes <- tpv:
		default:
		}
	})
	done := session.Watch()

	select {
	case tpv := <-fixes:
		closeWatch(session, done)
		return s.accept(tpv), nil
	case <-done:
		_ = session.Close()
		// The stream may end right after the fix was delivered.
		select {
		case tpv := <-fixes:
			return s.accept(tpv), nil
		default:
			return domain.GeoPosition{}, fmt.Errorf("%w: gpsd closed without a fix", domain.ErrPositionUnavailable)
		}
	case <-ctx.Done():
		closeWatch(session, done)
		return domain.GeoPosition{}, ctx.Err()
	}
}

func (s *GPSDSource) accept(tpv *gpsd.TPVReport) domain.GeoPosition {
	pos := s.position(tpv)
	s.mu.Lock()
	s.cached = &pos
	s.mu.Unlock()
	return pos
}

func (s *GPSDSource) position(tpv *gpsd.TPVReport) domain.GeoPosition {
	pos := domain.GeoPosition{
		Latitude:  tpv.Lat,
		Longitude: tpv.Lon,
		At:        s.clock.Now(),
	}
	if !tpv.Time.IsZero() {
		pos.At = tpv.Time.UTC()
	}
	if acc := max(tpv.Epx, tpv.Epy); acc > 0 {
		pos.Accuracy = &acc
	}
	return pos
}

func (s *GPSDSource) fresh(maxAge time.Duration) (domain.GeoPosition, bool) {
	if maxAge <= 0 {
		return domain.GeoPosition{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil || s.clock.Now().Sub(s.cached.At) > maxAge {
		return domain.GeoPosition{}, false
	}
	return *s.cached, true
}

// dialGPSD bounds gpsd.Dial, which takes no context, by ctx.
func dialGPSD(ctx context.Context, addr string) (*gpsd.Session, error) {
	type result struct {
		session *gpsd.Session
		err     error
	}
	dialed := make(chan result, 1)
	go func() {
		session, err := gpsd.Dial(addr)
		dialed <- result{session: session, err: err}
	}()
	select {
	case r := <-dialed:
		if r.err != nil {
			return nil, classifyDial(r.err)
		}
		return r.session, nil
	case <-ctx.Done():
		go func() {
			if r := <-dialed; r.session != nil {
				_ = r.session.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// closeWatch ends the session and lets the watch goroutine report done.
func closeWatch(session *gpsd.Session, done <-chan bool) {
	_ = session.Close()
	go func() { <-done }()
}

func classifyDial(err error) error {
	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrPositionUnavailable, err)
}
