package out

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bnkchallenge/internal/modules/tracking/dto"
)

// RelayEvent is the JSON message published on a mission's channel.
type RelayEvent struct {
	Type                   string  `json:"type"`
	MissionID              string  `json:"mission_id"`
	SessionID              string  `json:"session_id,omitempty"`
	AccumulatedDwellMillis int64   `json:"accumulated_dwell_ms,omitempty"`
	RequiredDwellMillis    int64   `json:"required_dwell_ms,omitempty"`
	DistanceMeters         float64 `json:"distance_m,omitempty"`
	IsInZone               bool    `json:"is_in_zone,omitempty"`
	Reward                 int     `json:"reward,omitempty"`
	CoinBalance            int     `json:"coin_balance,omitempty"`
}

// RedisRelay mirrors tracker events to redis pub/sub so dashboards and other
// terminals can follow a session.
type RedisRelay struct {
	client *redis.Client
}

func NewRedisRelay(client *redis.Client) *RedisRelay {
	return &RedisRelay{client: client}
}

func ChannelFor(missionID string) string {
	return "tracking:" + missionID + ":events"
}

func (r *RedisRelay) PublishProgress(ctx context.Context, p dto.Progress) error {
	return r.publish(ctx, RelayEvent{
		Type:                   "progress",
		MissionID:              p.MissionID,
		AccumulatedDwellMillis: p.AccumulatedDwellMillis,
		RequiredDwellMillis:    p.RequiredDwellMillis,
		DistanceMeters:         p.DistanceMeters,
		IsInZone:               p.IsInZone,
	})
}

func (r *RedisRelay) PublishCompletion(ctx context.Context, c dto.Completion) error {
	return r.publish(ctx, RelayEvent{
		Type:        "completion",
		MissionID:   c.MissionID,
		SessionID:   c.SessionID,
		Reward:      c.Reward,
		CoinBalance: c.CoinBalance,
	})
}

func (r *RedisRelay) publish(ctx context.Context, ev RelayEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode relay event: %w", err)
	}
	if err := r.client.Publish(ctx, ChannelFor(ev.MissionID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
