package redis

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/fantasy-roster/internal/domain/ownership"
	"github.com/riskibarqy/fantasy-roster/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
)

func TestChangeEventPayloadRoundTrip(t *testing.T) {
	occurredAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	event := ownership.ChangeEvent{
		LeagueID:        "liga1",
		TeamID:          "garuda",
		AddedPlayerID:   "idn-mid-02",
		DroppedPlayerID: "idn-fwd-03",
		Action:          ownership.ActionSwap,
		OccurredAt:      occurredAt,
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := encodeChangeEvent(buf, event); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeChangeEvent(buf.B)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.LeagueID != event.LeagueID || got.Action != ownership.ActionSwap || !got.OccurredAt.Equal(occurredAt) {
		t.Fatalf("unexpected decoded event %+v", got)
	}

	if _, err := DecodeChangeEvent([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error for malformed payload")
	}
}

func TestChangeChannel(t *testing.T) {
	if got := ChangeChannel("liga1-classic-2025"); got != "roster:ownership:liga1-classic-2025" {
		t.Fatalf("unexpected channel %s", got)
	}
}

func TestNotifier_BreakerOpensWhenRedisIsDown(t *testing.T) {
	client := newClient(ClientConfig{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })

	notifier := NewNotifier(client, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	event := ownership.ChangeEvent{LeagueID: "liga1", TeamID: "garuda", Action: ownership.ActionAdd}
	for i := 0; i < 2; i++ {
		err := notifier.Publish(t.Context(), event)
		if err == nil || errors.Is(err, resilience.ErrCircuitOpen) {
			t.Fatalf("attempt %d: expected a dial error, got %v", i, err)
		}
	}

	if err := notifier.Publish(t.Context(), event); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open breaker after repeated failures, got %v", err)
	}
}
