package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "paperledger/pkg/domain-errors"
)

// Metrics holds the operation metrics shared by every marketplace module.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	UsersRegistered   prometheus.Counter
	PapersPublished   prometheus.Counter
	ReviewsSubmitted  *prometheus.CounterVec
	BadgesMinted      *prometheus.CounterVec
	Sales             prometheus.Counter
	SalesVolume       prometheus.Counter
	FeesCollected     prometheus.Counter
	Withdrawn         *prometheus.CounterVec
}

// New registers the metrics with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_operations_total",
			Help: "Marketplace operations by module, operation, and outcome code",
		}, []string{"module", "operation", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperledger_operation_duration_seconds",
			Help:    "Duration of marketplace operations including the ledger transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"module", "operation"}),
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "paperledger_users_registered_total",
			Help: "Total number of registered user profiles",
		}),
		PapersPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "paperledger_publications_created_total",
			Help: "Total number of publications created",
		}),
		ReviewsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_reviews_submitted_total",
			Help: "Reviews submitted by verdict",
		}, []string{"verdict"}),
		BadgesMinted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_badges_minted_total",
			Help: "Achievement badges minted by achievement label",
		}, []string{"achievement"}),
		Sales: f.NewCounter(prometheus.CounterOpts{
			Name: "paperledger_purchases_total",
			Help: "Total number of settled purchases",
		}),
		SalesVolume: f.NewCounter(prometheus.CounterOpts{
			Name: "paperledger_sales_volume_base_units_total",
			Help: "Sum of purchase prices in base units",
		}),
		FeesCollected: f.NewCounter(prometheus.CounterOpts{
			Name: "paperledger_fees_collected_base_units_total",
			Help: "Sum of platform fees in base units",
		}),
		Withdrawn: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paperledger_withdrawn_base_units_total",
			Help: "Base units drained from vaults by vault kind",
		}, []string{"vault"}),
	}
}

// ObserveOperation records the outcome and duration of one operation.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveOperation(module, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	m.Operations.WithLabelValues(module, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(module, operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementUsersRegistered() {
	if m != nil {
		m.UsersRegistered.Inc()
	}
}

func (m *Metrics) IncrementPapersPublished() {
	if m != nil {
		m.PapersPublished.Inc()
	}
}

func (m *Metrics) IncrementReviews(verdict string) {
	if m != nil {
		m.ReviewsSubmitted.WithLabelValues(verdict).Inc()
	}
}

func (m *Metrics) IncrementBadges(achievement string) {
	if m != nil {
		m.BadgesMinted.WithLabelValues(achievement).Inc()
	}
}

func (m *Metrics) ObservePurchase(price, fee uint64) {
	if m != nil {
		m.Sales.Inc()
		m.SalesVolume.Add(float64(price))
		m.FeesCollected.Add(float64(fee))
	}
}

func (m *Metrics) ObserveWithdrawal(vault string, amount uint64) {
	if m != nil {
		m.Withdrawn.WithLabelValues(vault).Add(float64(amount))
	}
}
