package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ledgerCreditsTotal,
		ledgerDebitsTotal,
		ledgerInsufficientTotal,
	)
}

var (
	ledgerCreditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_credits_total",
			Help: "Credits granted, labeled by transaction type.",
		},
		[]string{"type"},
	)

	ledgerDebitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_debits_total",
			Help: "Credits deducted for generations.",
		},
	)

	ledgerInsufficientTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_insufficient_total",
			Help: "Deductions rejected for insufficient balance.",
		},
	)
)

func AddLedgerCredit(typ string, amount int64) {
	ledgerCreditsTotal.WithLabelValues(norm(typ)).Add(float64(amount))
}

func AddLedgerDebit(amount int64) {
	ledgerDebitsTotal.Add(float64(amount))
}

func IncInsufficientCredits() {
	ledgerInsufficientTotal.Inc()
}
