package service

import (
	"context"
	"errors"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"bnkchallenge/internal/modules/location/domain"
	locationout "bnkchallenge/internal/modules/location/port/out"
	"bnkchallenge/internal/platform/clock"
	"bnkchallenge/internal/platform/logging"
)

// Provider holds the latest known device position and the state of the most
// recent acquisition.
type Provider struct {
	source  locationout.LocationSource
	clock   clock.Clock
	logger  hclog.Logger
	timeout time.Duration

	mu       sync.Mutex
	position *domain.GeoPosition
	err      error
	loading  bool
	gen      uint64
}

// NewProvider builds a provider over source. A nil source means no backend was
// detected and every request fails with ErrUnsupported. A zero timeout uses
// domain.RequestTimeout.
func NewProvider(source locationout.LocationSource, clk clock.Clock, logger hclog.Logger, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = domain.RequestTimeout
	}
	return &Provider{
		source:  source,
		clock:   clk,
		logger:  logging.OrDiscard(logger).Named("location"),
		timeout: timeout,
	}
}

func (p *Provider) SourceKind() domain.SourceKind {
	if p.source == nil {
		return ""
	}
	return p.source.Kind()
}

func (p *Provider) RequestLocation(ctx context.Context) (domain.GeoPosition, error) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.loading = true
	p.err = nil
	p.mu.Unlock()

	if p.source == nil {
		p.finish(gen, domain.GeoPosition{}, domain.ErrUnsupported)
		return domain.GeoPosition{}, domain.ErrUnsupported
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := domain.DefaultOptions()
	opts.Timeout = p.timeout
	pos, err := p.source.Acquire(reqCtx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			err = domain.ErrTimeout
		}
		err = domain.Classify(err)
		p.logger.Warn("location request failed", "source", p.source.Kind(), "error", err)
		p.finish(gen, domain.GeoPosition{}, err)
		return domain.GeoPosition{}, err
	}
	if pos.At.IsZero() {
		pos.At = p.clock.Now()
	}
	p.logger.Debug("location acquired", "source", p.source.Kind(), "lat", pos.Latitude, "lng", pos.Longitude)
	p.finish(gen, pos, nil)
	return pos, nil
}

// finish applies a result only when it belongs to the latest request.
func (p *Provider) finish(gen uint64, pos domain.GeoPosition, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.loading = false
	if err != nil {
		p.err = err
		return
	}
	p.position = &pos
}

// Listen consumes positions pushed by the source until ctx is done or the feed
// closes. A pushed position clears any pending error and the loading flag.
// Sources without a push channel return immediately.
func (p *Provider) Listen(ctx context.Context) error {
	feed, ok := p.source.(locationout.PositionFeed)
	if !ok {
		return nil
	}
	positions, err := feed.Positions(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case pos, ok := <-positions:
			if !ok {
				return nil
			}
			if pos.At.IsZero() {
				pos.At = p.clock.Now()
			}
			p.mu.Lock()
			p.position = &pos
			p.err = nil
			p.loading = false
			p.mu.Unlock()
		}
	}
}

type Snapshot struct {
	Position *domain.GeoPosition
	Err      error
	Loading  bool
}

func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := Snapshot{Err: p.err, Loading: p.loading}
	if p.position != nil {
		pos := *p.position
		out.Position = &pos
	}
	return out
}
