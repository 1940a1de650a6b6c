package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperledger/internal/platform/metrics"
	"paperledger/pkg/domain"
	"paperledger/pkg/platform/audit"
	"paperledger/pkg/platform/audit/publisher"
	"paperledger/pkg/platform/audit/store/memory"
	"paperledger/pkg/requestcontext"
)

func TestLogAuditEmitsEvent(t *testing.T) {
	var buf bytes.Buffer
	store := memory.NewInMemoryStore()
	pub := publisher.NewPublisher(store)
	defer pub.Close()

	o := New("commerce")
	o.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	o.Audit = pub

	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	actor := domain.Identity{9}
	o.LogAudit(ctx, audit.EventPurchaseSettled, actor, domain.Address{4}, "price", uint64(500))

	events, err := store.ListByActor(ctx, actor.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "commerce", events[0].Module)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "500", events[0].Attrs["price"])
	assert.Contains(t, buf.String(), "log_type=audit")
	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestStartRecordsOutcome(t *testing.T) {
	o := New("treasury")
	o.Metrics = metrics.New(prometheus.NewRegistry())

	_, finish := o.Start(context.Background(), "withdraw")
	finish(errors.New("substrate down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(o.Metrics.Operations.WithLabelValues("treasury", "withdraw", "internal_error")))
}
