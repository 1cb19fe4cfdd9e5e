package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicPriceTicks)

	require.NoError(t, b.Publish(TopicPriceTicks, "tick-1"))

	select {
	case got := <-ch:
		require.Equal(t, "tick-1", got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestBus_PublishDropsOnFullQueue(t *testing.T) {
	b := New()
	_ = b.Subscribe(TopicPriceTicks) // never drained

	for i := 0; i < defaultTopicCapacity+10; i++ {
		require.NoError(t, b.Publish(TopicPriceTicks, i))
	}
	// no assertion beyond "did not block or panic" — drop-on-full is the policy
}

func TestBus_PublishAfterClose(t *testing.T) {
	b := New()
	b.Close()
	require.ErrorIs(t, b.Publish(TopicPriceTicks, "x"), ErrQueueClosed)
}

func TestBus_SubscribersAreIndependent(t *testing.T) {
	b := New()
	chA := b.Subscribe(TopicTradeEvents)
	chB := b.Subscribe(TopicTradeEvents)

	require.NoError(t, b.Publish(TopicTradeEvents, "hello"))

	for _, ch := range []<-chan any{chA, chB} {
		select {
		case got := <-ch:
			require.Equal(t, "hello", got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fan-out message")
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	b := New()
	ch := b.Subscribe(TopicOrderEvents)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	received := make(chan any, 1)

	go func() {
		Run(ctx, ch, func(payload any) { received <- payload })
		close(done)
	}()

	require.NoError(t, b.Publish(TopicOrderEvents, "order-1"))
	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler invocation")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestOrderbookTopic(t *testing.T) {
	require.Equal(t, "orderbook_BTCUSD", OrderbookTopic("BTCUSD"))
}
