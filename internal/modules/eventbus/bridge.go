package eventbus

import (
	"context"
	"encoding/json"

	"propfirm-core/pkg/logger"

	"github.com/bytedance/sonic"
)

// KVPublisher is the subset of rediskv.Store the bridge needs; kept
// as a narrow interface so eventbus never imports rediskv directly
// (same "inject the collaborator" shape spec.md §9 prescribes for the
// matching<->risk closeTrade wiring).
type KVPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Bridge re-publishes the in-process events of the topics given to
// Start onto the KV pub/sub channel of the same name, so an external
// reader (or a restarted broadcaster) observes those streams too.
type Bridge struct {
	bus *Bus
	kv  KVPublisher
}

func NewBridge(bus *Bus, kv KVPublisher) *Bridge {
	return &Bridge{bus: bus, kv: kv}
}

// Start attaches one goroutine per topic that forwards payloads to the
// KV channel of the same name, until ctx is done.
func (br *Bridge) Start(ctx context.Context, topics ...string) {
	for _, topic := range topics {
		ch := br.bus.Subscribe(topic)
		topic := topic
		go Run(ctx, ch, func(payload any) {
			b, err := encode(payload)
			if err != nil {
				logger.Info("eventbus: failed to encode payload for %s: %v", topic, err)
				return
			}
			if err := br.kv.Publish(ctx, topic, b); err != nil {
				logger.Info("eventbus: kv publish failed for %s: %v", topic, err)
			}
		})
	}
}

func encode(payload any) ([]byte, error) {
	if b, ok := payload.([]byte); ok {
		return b, nil
	}
	b, err := sonic.Marshal(payload)
	if err != nil {
		// sonic's reflection path occasionally rejects shapes stdlib
		// json handles; fall back rather than drop the event.
		return json.Marshal(payload)
	}
	return b, nil
}
