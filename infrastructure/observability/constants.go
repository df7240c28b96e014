package observability

// Metric name prefixes
const (
	MetricPrefix = "wagerengine"
)

// Metric names
const (
	// Wager lifecycle metrics
	WagerTransitionsTotal = MetricPrefix + ".wagers.transitions_total"
	JoinOutcomesTotal     = MetricPrefix + ".wagers.join_outcomes_total"

	// Settlement metrics
	SettlementAttemptsTotal = MetricPrefix + ".settlement.attempts_total"
	PayoutsTotal            = MetricPrefix + ".settlement.payouts_total"
	PayoutAmount            = MetricPrefix + ".settlement.payout_amount"
	RefundsTotal            = MetricPrefix + ".settlement.refunds_total"

	// Concurrency metrics
	ConflictsRetriedTotal = MetricPrefix + ".db.conflicts_retried_total"

	// Fraud and ledger health
	FraudFlagsTotal   = MetricPrefix + ".fraud.flags_total"
	LedgerAlertsTotal = MetricPrefix + ".ledger.alerts_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Cache metrics
	SummaryCacheLookupsTotal = MetricPrefix + ".cache.summary_lookups_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelOutcome   = "outcome"
	LabelSignal    = "signal"
	LabelSeverity  = "severity"
	LabelOperation = "operation"
	LabelResult    = "result"
)

// Settlement outcomes
const (
	OutcomeSettled = "settled"
	OutcomeManual  = "manual"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Join outcomes
const (
	JoinOutcomeJoined   = "joined"
	JoinOutcomeRejected = "rejected"
	JoinOutcomeLeft     = "left"
)

// Cache lookup results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)
