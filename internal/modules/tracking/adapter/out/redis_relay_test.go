package out

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"bnkchallenge/internal/modules/tracking/dto"
)

func TestRedisRelayPublishesToMissionChannel(t *testing.T) {
	t.Parallel()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, ChannelFor("m-1"))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	messages := sub.Channel()

	relay := NewRedisRelay(client)
	if err := relay.PublishProgress(ctx, dto.Progress{MissionID: "m-1", AccumulatedDwellMillis: 5000, RequiredDwellMillis: 60000, DistanceMeters: 50, IsInZone: true}); err != nil {
		t.Fatalf("publish progress: %v", err)
	}
	if err := relay.PublishCompletion(ctx, dto.Completion{SessionID: "s-1", MissionID: "m-1", Reward: 100, CoinBalance: 28346}); err != nil {
		t.Fatalf("publish completion: %v", err)
	}

	var got []RelayEvent
	for len(got) < 2 {
		select {
		case msg := <-messages:
			var ev RelayEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				t.Fatalf("decode: %v", err)
			}
			got = append(got, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for relay messages, got %d", len(got))
		}
	}
	if got[0].Type != "progress" || got[0].AccumulatedDwellMillis != 5000 || !got[0].IsInZone {
		t.Fatalf("unexpected progress event: %+v", got[0])
	}
	if got[1].Type != "completion" || got[1].CoinBalance != 28346 || got[1].SessionID != "s-1" {
		t.Fatalf("unexpected completion event: %+v", got[1])
	}
}

func TestRedisRelayReportsUnreachableServer(t *testing.T) {
	t.Parallel()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	defer client.Close()
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := NewRedisRelay(client).PublishProgress(ctx, dto.Progress{MissionID: "m-1"}); err == nil {
		t.Fatalf("expected publish error")
	}
}
