package hostbridge_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"bnkchallenge/internal/platform/hostbridge"
)

type fakeHost struct {
	mu       sync.Mutex
	started  []hostbridge.StartMonitoringRequest
	stopped  []string
	requests int
	events   chan *hostbridge.Event
	fail     error
}

func newFakeHost() *fakeHost {
	return &fakeHost{events: make(chan *hostbridge.Event, 16)}
}

func (f *fakeHost) GetInfo(context.Context, *hostbridge.Empty) (*hostbridge.Info, error) {
	return &hostbridge.Info{Name: "fake", Version: "0.0.1", Capabilities: []string{hostbridge.CapabilityLocation, hostbridge.CapabilityGeofence}}, nil
}

func (f *fakeHost) RequestLocation(context.Context, *hostbridge.Empty) (*hostbridge.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	return &hostbridge.Ack{OK: true}, f.fail
}

func (f *fakeHost) StartMonitoring(_ context.Context, in *hostbridge.StartMonitoringRequest) (*hostbridge.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, *in)
	return &hostbridge.Ack{OK: true}, nil
}

func (f *fakeHost) StopMonitoring(_ context.Context, in *hostbridge.StopMonitoringRequest) (*hostbridge.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, in.MissionID)
	return &hostbridge.Ack{OK: true}, nil
}

func (f *fakeHost) Events(_ *hostbridge.EventsRequest, sink hostbridge.EventSink) error {
	for {
		select {
		case <-sink.Context().Done():
			return nil
		case ev := <-f.events:
			if err := sink.Send(ev); err != nil {
				return err
			}
		}
	}
}

func dialFake(t *testing.T, host hostbridge.HostBridgeServer) hostbridge.HostBridgeClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hostbridge.RegisterHostBridgeServer(srv, host)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return hostbridge.NewHostBridgeClient(conn)
}

func TestBridgeRoundTrip(t *testing.T) {
	t.Parallel()
	host := newFakeHost()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bridge, err := hostbridge.Open(ctx, dialFake(t, host), nil, nil)
	if err != nil {
		t.Fatalf("open bridge: %v", err)
	}
	if bridge.Info().Name != "fake" || !bridge.Has(hostbridge.CapabilityGeofence) || bridge.Has("camera") {
		t.Fatalf("unexpected info %+v", bridge.Info())
	}

	events, unsubscribe := bridge.Subscribe(8)
	defer unsubscribe()

	if err := bridge.StartMonitoring(ctx, "mission-1", 35.1, 129.0, time.Minute); err != nil {
		t.Fatalf("start monitoring: %v", err)
	}
	if err := bridge.RequestLocation(ctx); err != nil {
		t.Fatalf("request location: %v", err)
	}
	if err := bridge.StopMonitoring(ctx, "mission-1"); err != nil {
		t.Fatalf("stop monitoring: %v", err)
	}
	host.mu.Lock()
	if len(host.started) != 1 || host.started[0].DurationMS != 60000 || host.started[0].Lat != 35.1 {
		t.Fatalf("unexpected start requests %+v", host.started)
	}
	if len(host.stopped) != 1 || host.requests != 1 {
		t.Fatalf("unexpected stop=%v requests=%d", host.stopped, host.requests)
	}
	host.mu.Unlock()

	reward := 100
	host.events <- &hostbridge.Event{Kind: hostbridge.EventProgress, Progress: &hostbridge.ProgressEvent{MissionID: "mission-1", TimeInZoneMS: 5000, RequiredDurationMS: 60000, DistanceM: 42, IsInZone: true}}
	host.events <- &hostbridge.Event{Kind: hostbridge.EventCompletion, Completion: &hostbridge.CompletionEvent{MissionID: "mission-1", Reward: &reward}}

	first := recvEvent(t, events)
	if first.Kind != hostbridge.EventProgress || first.Progress == nil || first.Progress.TimeInZoneMS != 5000 || !first.Progress.IsInZone {
		t.Fatalf("unexpected progress event %+v", first)
	}
	second := recvEvent(t, events)
	if second.Kind != hostbridge.EventCompletion || second.Completion.Reward == nil || *second.Completion.Reward != 100 || second.Completion.CoinBalance != nil {
		t.Fatalf("unexpected completion event %+v", second)
	}

	bridge.Close()
	if _, ok := <-events; ok {
		t.Fatalf("subscriber channel must close with the bridge")
	}
	late, _ := bridge.Subscribe(1)
	if _, ok := <-late; ok {
		t.Fatalf("subscribing to a closed bridge must yield a closed channel")
	}
}

func TestSlowSubscriberStillReceivesCompletion(t *testing.T) {
	t.Parallel()
	host := newFakeHost()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bridge, err := hostbridge.Open(ctx, dialFake(t, host), nil, nil)
	if err != nil {
		t.Fatalf("open bridge: %v", err)
	}
	defer bridge.Close()

	slow, unsubscribeSlow := bridge.Subscribe(1)
	defer unsubscribeSlow()
	abandoned, unsubscribeAbandoned := bridge.Subscribe(1)
	fast, unsubscribeFast := bridge.Subscribe(8)
	defer unsubscribeFast()

	progress := func(ms int64) *hostbridge.Event {
		return &hostbridge.Event{Kind: hostbridge.EventProgress, Progress: &hostbridge.ProgressEvent{MissionID: "mission-1", TimeInZoneMS: ms, RequiredDurationMS: 60000, DistanceM: 20, IsInZone: true}}
	}
	host.events <- progress(1000)
	host.events <- progress(2000)
	host.events <- &hostbridge.Event{Kind: hostbridge.EventCompletion, Completion: &hostbridge.CompletionEvent{MissionID: "mission-1"}}

	for _, want := range []string{hostbridge.EventProgress, hostbridge.EventProgress, hostbridge.EventCompletion} {
		if got := recvEvent(t, fast); got.Kind != want {
			t.Fatalf("fast subscriber: expected %s, got %+v", want, got)
		}
	}

	first := recvEvent(t, slow)
	if first.Kind != hostbridge.EventProgress || first.Progress.TimeInZoneMS != 1000 {
		t.Fatalf("expected the buffered progress first, got %+v", first)
	}
	if second := recvEvent(t, slow); second.Kind != hostbridge.EventCompletion {
		t.Fatalf("completion must reach a full subscriber, got %+v", second)
	}

	unsubscribeAbandoned()
	if ev, ok := <-abandoned; !ok || ev.Kind != hostbridge.EventProgress {
		t.Fatalf("expected the buffered progress before close, got %+v (open=%t)", ev, ok)
	}
	if _, ok := <-abandoned; ok {
		t.Fatalf("unsubscribed channel must be closed")
	}
}

func TestBridgeCallErrorsAreWrapped(t *testing.T) {
	t.Parallel()
	host := newFakeHost()
	host.fail = errors.New("no gps")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bridge, err := hostbridge.Open(ctx, dialFake(t, host), nil, nil)
	if err != nil {
		t.Fatalf("open bridge: %v", err)
	}
	defer bridge.Close()
	if err := bridge.RequestLocation(ctx); err == nil {
		t.Fatalf("expected error from host")
	}
}

func recvEvent(t *testing.T, ch <-chan hostbridge.Event) hostbridge.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for host event")
	}
	return hostbridge.Event{}
}
