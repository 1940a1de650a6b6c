//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "paperledger/pkg/platform/audit"
	"paperledger/pkg/testutil/containers"
)

func TestSinkProducesEvents(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	t.Cleanup(func() { _ = rp.Terminate(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sink, err := NewSink([]string{rp.Broker}, "audit-events")
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1))
	require.NoError(t, sink.EnsureTopic(ctx, 1, 1), "second call tolerates an existing topic")

	require.NoError(t, sink.Append(ctx, audit.Event{
		ID:     "evt-1",
		Actor:  "buyer",
		Action: string(audit.EventPurchaseSettled),
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics("audit-events"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "evt-1", got.ID)
	assert.Equal(t, []byte("buyer"), records[0].Key)
}
