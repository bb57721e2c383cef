package hostbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey          = "hostbridge"
	serviceName           = "bnk.hostbridge.v1.HostBridge"
	jsonCodecName         = "json"
	methodGetInfo         = "/" + serviceName + "/GetInfo"
	methodRequestLocation = "/" + serviceName + "/RequestLocation"
	methodStartMonitoring = "/" + serviceName + "/StartMonitoring"
	methodStopMonitoring  = "/" + serviceName + "/StopMonitoring"
	methodEvents          = "/" + serviceName + "/Events"
)

const (
	CapabilityLocation = "location"
	CapabilityGeofence = "geofence"
)

const (
	EventLocation   = "location"
	EventProgress   = "progress"
	EventCompletion = "completion"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "BNK_HOST_BRIDGE",
	MagicCookieValue: "bnk",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Ack struct {
	OK bool `json:"ok"`
}

type Info struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

type StartMonitoringRequest struct {
	MissionID  string  `json:"mission_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DurationMS int64   `json:"duration_ms"`
}

type StopMonitoringRequest struct {
	MissionID string `json:"mission_id"`
}

type EventsRequest struct{}

type LocationEvent struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Accuracy    *float64 `json:"accuracy,omitempty"`
	TimestampMS int64    `json:"timestamp_ms,omitempty"`
}

type ProgressEvent struct {
	MissionID          string  `json:"mission_id"`
	TimeInZoneMS       int64   `json:"time_in_zone_ms"`
	RequiredDurationMS int64   `json:"required_duration_ms"`
	DistanceM          float64 `json:"distance_m"`
	IsInZone           bool    `json:"is_in_zone"`
}

type CompletionEvent struct {
	MissionID   string `json:"mission_id"`
	Reward      *int   `json:"reward,omitempty"`
	CoinBalance *int   `json:"coin_balance,omitempty"`
}

// Event is one host notification. Exactly one payload matches Kind.
type Event struct {
	Kind       string           `json:"kind"`
	Location   *LocationEvent   `json:"location,omitempty"`
	Progress   *ProgressEvent   `json:"progress,omitempty"`
	Completion *CompletionEvent `json:"completion,omitempty"`
}

// EventSink is the server side of the Events stream.
type EventSink interface {
	Send(*Event) error
	Context() context.Context
}

// EventStream is the client side of the Events stream.
type EventStream interface {
	Recv() (*Event, error)
}

type HostBridgeServer interface {
	GetInfo(ctx context.Context, in *Empty) (*Info, error)
	RequestLocation(ctx context.Context, in *Empty) (*Ack, error)
	StartMonitoring(ctx context.Context, in *StartMonitoringRequest) (*Ack, error)
	StopMonitoring(ctx context.Context, in *StopMonitoringRequest) (*Ack, error)
	Events(in *EventsRequest, sink EventSink) error
}

type HostBridgeClient interface {
	GetInfo(ctx context.Context) (*Info, error)
	RequestLocation(ctx context.Context) error
	StartMonitoring(ctx context.Context, in *StartMonitoringRequest) error
	StopMonitoring(ctx context.Context, in *StopMonitoringRequest) error
	Events(ctx context.Context) (EventStream, error)
}

type hostBridgeClient struct {
	conn grpc.ClientConnInterface
}

func NewHostBridgeClient(conn grpc.ClientConnInterface) HostBridgeClient {
	return &hostBridgeClient{conn: conn}
}

func (c *hostBridgeClient) GetInfo(ctx context.Context) (*Info, error) {
	out := &Info{}
	if err := c.conn.Invoke(ctx, methodGetInfo, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *hostBridgeClient) RequestLocation(ctx context.Context) error {
	return c.conn.Invoke(ctx, methodRequestLocation, &Empty{}, &Ack{}, grpc.CallContentSubtype(jsonCodecName))
}

func (c *hostBridgeClient) StartMonitoring(ctx context.Context, in *StartMonitoringRequest) error {
	return c.conn.Invoke(ctx, methodStartMonitoring, in, &Ack{}, grpc.CallContentSubtype(jsonCodecName))
}

func (c *hostBridgeClient) StopMonitoring(ctx context.Context, in *StopMonitoringRequest) error {
	return c.conn.Invoke(ctx, methodStopMonitoring, in, &Ack{}, grpc.CallContentSubtype(jsonCodecName))
}

var eventsStreamDesc = grpc.StreamDesc{StreamName: "Events", ServerStreams: true}

func (c *hostBridgeClient) Events(ctx context.Context) (EventStream, error) {
	stream, err := c.conn.NewStream(ctx, &eventsStreamDesc, methodEvents, grpc.CallContentSubtype(jsonCodecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&EventsRequest{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &eventStream{stream: stream}, nil
}

type eventStream struct {
	stream grpc.ClientStream
}

func (s *eventStream) Recv() (*Event, error) {
	ev := &Event{}
	if err := s.stream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

type eventSink struct {
	stream grpc.ServerStream
}

func (s *eventSink) Send(ev *Event) error {
	return s.stream.SendMsg(ev)
}

func (s *eventSink) Context() context.Context {
	return s.stream.Context()
}

func unaryHandler[Req any](method string, call func(context.Context, *Req) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterHostBridgeServer(server grpc.ServiceRegistrar, impl HostBridgeServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*HostBridgeServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetInfo",
				Handler: unaryHandler(methodGetInfo, func(ctx context.Context, in *Empty) (any, error) {
					return impl.GetInfo(ctx, in)
				}),
			},
			{
				MethodName: "RequestLocation",
				Handler: unaryHandler(methodRequestLocation, func(ctx context.Context, in *Empty) (any, error) {
					return impl.RequestLocation(ctx, in)
				}),
			},
			{
				MethodName: "StartMonitoring",
				Handler: unaryHandler(methodStartMonitoring, func(ctx context.Context, in *StartMonitoringRequest) (any, error) {
					return impl.StartMonitoring(ctx, in)
				}),
			},
			{
				MethodName: "StopMonitoring",
				Handler: unaryHandler(methodStopMonitoring, func(ctx context.Context, in *StopMonitoringRequest) (any, error) {
					return impl.StopMonitoring(ctx, in)
				}),
			},
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "Events",
				ServerStreams: true,
				Handler: func(_ any, stream grpc.ServerStream) error {
					in := &EventsRequest{}
					if err := stream.RecvMsg(in); err != nil {
						return err
					}
					return impl.Events(in, &eventSink{stream: stream})
				},
			},
		},
		Metadata: "schemas/hostbridge-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl HostBridgeServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterHostBridgeServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewHostBridgeClient(conn), nil
}

func PluginMap(impl HostBridgeServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
