package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	dErrors "paperledger/pkg/domain-errors"
)

func TestObserveOperationLabelsOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("commerce", "purchase", time.Now(), nil)
	m.ObserveOperation("commerce", "purchase", time.Now(), dErrors.New(dErrors.CodeInsufficientFunds, "short"))
	m.ObserveOperation("commerce", "purchase", time.Now(), dErrors.New(dErrors.CodeInsufficientFunds, "short"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("commerce", "purchase", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("commerce", "purchase", "insufficient_funds")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("identity", "register", time.Now(), nil)
		m.IncrementUsersRegistered()
	})
}

func TestObservePurchase(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePurchase(500_000_000, 10_000_000)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sales))
	assert.Equal(t, 500_000_000.0, testutil.ToFloat64(m.SalesVolume))
	assert.Equal(t, 10_000_000.0, testutil.ToFloat64(m.FeesCollected))
}
