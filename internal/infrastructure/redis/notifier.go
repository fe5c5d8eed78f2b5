package redis

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
)

const changeChannelPrefix = "roster:ownership:"

// ChangeChannel is the Pub/Sub channel carrying committed changes for one league.
func ChangeChannel(leagueID string) string {
	return changeChannelPrefix + leagueID
}

// Notifier publishes committed ownership changes. The breaker stops publish attempts
// while Redis is down so commits are not slowed by dial timeouts.
type Notifier struct {
	rdb     *redis.Client
	breaker *resilience.CircuitBreaker
}

var _ ownership.Notifier = (*Notifier)(nil)

func NewNotifier(c *Client, breakerCfg resilience.CircuitBreakerConfig) *Notifier {
	return &Notifier{
		rdb:     c.rdb,
		breaker: resilience.NewCircuitBreakerFromConfig(breakerCfg),
	}
}

func (n *Notifier) Publish(ctx context.Context, event ownership.ChangeEvent) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := encodeChangeEvent(buf, event); err != nil {
		return fmt.Errorf("encode ownership change: %w", err)
	}

	channel := ChangeChannel(event.LeagueID)
	payload := buf.String()
	return n.breaker.Execute(func() error {
		if err := n.rdb.Publish(ctx, channel, payload).Err(); err != nil {
			return fmt.Errorf("redis: publish %s: %w", channel, err)
		}
		return nil
	})
}

func encodeChangeEvent(buf *bytebufferpool.ByteBuffer, event ownership.ChangeEvent) error {
	raw, err := sonic.Marshal(event)
	if err != nil {
		return err
	}
	_, err = buf.Write(raw)
	return err
}

// DecodeChangeEvent parses a payload published by Notifier.
func DecodeChangeEvent(payload []byte) (ownership.ChangeEvent, error) {
	var event ownership.ChangeEvent
	if err := sonic.Unmarshal(payload, &event); err != nil {
		return ownership.ChangeEvent{}, fmt.Errorf("decode ownership change: %w", err)
	}
	return event, nil
}
