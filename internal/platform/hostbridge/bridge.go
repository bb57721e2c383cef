package hostbridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"slices"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bnkchallenge/internal/platform/logging"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
)

var ErrHostTimeout = errors.New("host bridge call timed out")

// Bridge is a live connection to the embedding host. Host notifications arrive
// on a single stream and are fanned out to subscribers.
type Bridge struct {
	client  HostBridgeClient
	closeFn func()
	logger  hclog.Logger
	info    Info

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

// subscriber is one Subscribe channel. Completions that do not fit the buffer
// are handed over by a goroutine tracked in pending.
type subscriber struct {
	ch      chan Event
	gone    chan struct{}
	pending sync.WaitGroup
}

func (s *subscriber) deliver(ev Event) bool {
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *subscriber) deliverLater(ev Event) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		select {
		case s.ch <- ev:
		case <-s.gone:
		}
	}()
}

func (s *subscriber) release() {
	close(s.gone)
	s.pending.Wait()
	close(s.ch)
}

// Launch starts the host binary as a go-plugin process and opens the bridge.
func Launch(ctx context.Context, binary string, logger hclog.Logger) (*Bridge, error) {
	logger = logging.OrDiscard(logger).Named("hostbridge")
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          PluginMap(nil),
		Cmd:              exec.Command(binary),
		Managed:          true,
		StartTimeout:     defaultStartTimeout,
		Logger:           logger,
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("start host bridge: %w", err)
	}
	raw, err := rpcClient.Dispense(PluginMapKey)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("dispense host bridge: %w", err)
	}
	typed, ok := raw.(HostBridgeClient)
	if !ok {
		closeFn()
		return nil, fmt.Errorf("host bridge client type mismatch")
	}
	return Open(ctx, typed, closeFn, logger)
}

// Open checks the host and subscribes to its event stream.
func Open(ctx context.Context, client HostBridgeClient, closeFn func(), logger hclog.Logger) (*Bridge, error) {
	if closeFn == nil {
		closeFn = func() {}
	}
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	info, err := client.GetInfo(callCtx)
	cancel()
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("get host info: %w", mapCallErr(callCtx, err))
	}

	streamCtx, streamCancel := context.WithCancel(context.Background())
	stream, err := client.Events(streamCtx)
	if err != nil {
		streamCancel()
		closeFn()
		return nil, fmt.Errorf("open host events: %w", err)
	}
	b := &Bridge{
		client:  client,
		closeFn: closeFn,
		logger:  logging.OrDiscard(logger),
		info:    *info,
		cancel:  streamCancel,
		done:    make(chan struct{}),
		subs:    map[uint64]*subscriber{},
	}
	go b.pump(stream)
	return b, nil
}

func (b *Bridge) Info() Info {
	return b.info
}

func (b *Bridge) Has(capability string) bool {
	return slices.Contains(b.info.Capabilities, capability)
}

// Subscribe returns a channel of host events. Location and progress events
// are dropped for a subscriber whose buffer is full; completions are always
// delivered until the subscriber leaves. The returned func unsubscribes.
func (b *Bridge) Subscribe(buffer int) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, buffer), gone: make(chan struct{})}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	return sub.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			sub.release()
		}
	}
}

func (b *Bridge) RequestLocation(ctx context.Context) error {
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	if err := b.client.RequestLocation(callCtx); err != nil {
		return fmt.Errorf("request host location: %w", mapCallErr(callCtx, err))
	}
	return nil
}

func (b *Bridge) StartMonitoring(ctx context.Context, missionID string, lat, lng float64, duration time.Duration) error {
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	err := b.client.StartMonitoring(callCtx, &StartMonitoringRequest{
		MissionID:  missionID,
		Lat:        lat,
		Lng:        lng,
		DurationMS: duration.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("start host monitoring: %w", mapCallErr(callCtx, err))
	}
	return nil
}

func (b *Bridge) StopMonitoring(ctx context.Context, missionID string) error {
	callCtx, cancel := callContext(ctx, defaultCallTimeout)
	defer cancel()
	if err := b.client.StopMonitoring(callCtx, &StopMonitoringRequest{MissionID: missionID}); err != nil {
		return fmt.Errorf("stop host monitoring: %w", mapCallErr(callCtx, err))
	}
	return nil
}

// Close ends the event stream, closes every subscriber and stops the host.
func (b *Bridge) Close() {
	b.cancel()
	<-b.done
	b.closeFn()
}

func (b *Bridge) pump(stream EventStream) {
	defer close(b.done)
	for {
		ev, err := stream.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && status.Code(err) != codes.Canceled && !errors.Is(err, context.Canceled) {
				b.logger.Warn("host event stream ended", "error", err)
			}
			b.closeSubscribers()
			return
		}
		b.dispatch(*ev)
	}
}

func (b *Bridge) dispatch(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.deliver(ev) {
			continue
		}
		if ev.Kind == EventCompletion {
			sub.deliverLater(ev)
			continue
		}
		b.logger.Debug("dropping host event for slow subscriber", "kind", ev.Kind)
	}
}

func (b *Bridge) closeSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.release()
	}
}

func mapCallErr(callCtx context.Context, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrHostTimeout, err)
	}
	return err
}

func callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
