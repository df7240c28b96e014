package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wagerengine/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the engine
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	instrumented  bool
	mu            sync.RWMutex

	// Metric instruments
	transitionsCounter       metric.Int64Counter
	joinOutcomesCounter      metric.Int64Counter
	settlementCounter        metric.Int64Counter
	payoutsCounter           metric.Int64Counter
	payoutAmountHist         metric.Int64Histogram
	refundsCounter           metric.Int64Counter
	conflictsCounter         metric.Int64Counter
	fraudFlagsCounter        metric.Int64Counter
	ledgerAlertsCounter      metric.Int64Counter
	natsPublishedCounter     metric.Int64Counter
	summaryCacheLookupsCount metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)

	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("wagerengine")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.instrumented = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.transitionsCounter, WagerTransitionsTotal, "Total number of committed wager transitions"},
		{&mp.joinOutcomesCounter, JoinOutcomesTotal, "Total number of join and leave outcomes"},
		{&mp.settlementCounter, SettlementAttemptsTotal, "Total number of settlement attempts"},
		{&mp.payoutsCounter, PayoutsTotal, "Total number of escrow payouts"},
		{&mp.refundsCounter, RefundsTotal, "Total number of escrow refunds"},
		{&mp.conflictsCounter, ConflictsRetriedTotal, "Total number of retried serialization conflicts"},
		{&mp.fraudFlagsCounter, FraudFlagsTotal, "Total number of raised fraud flags"},
		{&mp.ledgerAlertsCounter, LedgerAlertsTotal, "Total number of ledger alerts"},
		{&mp.natsPublishedCounter, NATSMessagesPublishedTotal, "Total number of NATS messages published"},
		{&mp.summaryCacheLookupsCount, SummaryCacheLookupsTotal, "Total number of wager summary cache lookups"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(
			c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	mp.payoutAmountHist, err = mp.meter.Int64Histogram(
		PayoutAmount,
		metric.WithDescription("Amount paid out per escrow release, in minor units"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(10, 100, 1000, 10000, 100000, 1000000),
	)
	if err != nil {
		return fmt.Errorf("failed to create payout amount histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordTransition records a committed wager transition
func (mp *MetricsProvider) RecordTransition(transitionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.transitionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, transitionType)),
	)
}

// RecordJoinOutcome records a join, leave or rejected join
func (mp *MetricsProvider) RecordJoinOutcome(outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.joinOutcomesCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordSettlementAttempt records the outcome of one settlement attempt
func (mp *MetricsProvider) RecordSettlementAttempt(outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.settlementCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordPayout records a prize payout and its amount
func (mp *MetricsProvider) RecordPayout(amount int64) {
	if !mp.isEnabled() {
		return
	}
	mp.payoutsCounter.Add(context.Background(), 1)
	mp.payoutAmountHist.Record(context.Background(), amount)
}

// RecordRefund records a full or split refund
func (mp *MetricsProvider) RecordRefund(kind string) {
	if !mp.isEnabled() {
		return
	}
	mp.refundsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, kind)),
	)
}

// RecordConflictRetry records a retried serialization or lock conflict
func (mp *MetricsProvider) RecordConflictRetry(operation string) {
	if !mp.isEnabled() {
		return
	}
	mp.conflictsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOperation, operation)),
	)
}

// RecordFraudFlag records a raised fraud flag
func (mp *MetricsProvider) RecordFraudFlag(signal, severity string) {
	if !mp.isEnabled() {
		return
	}
	mp.fraudFlagsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelSignal, signal),
			attribute.String(LabelSeverity, severity),
		),
	)
}

// RecordLedgerAlert records an alert raised against the ledger
func (mp *MetricsProvider) RecordLedgerAlert(subject string) {
	if !mp.isEnabled() {
		return
	}
	mp.ledgerAlertsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, subject)),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordSummaryCacheLookup records a summary cache hit or miss
func (mp *MetricsProvider) RecordSummaryCacheLookup(result string) {
	if !mp.isEnabled() {
		return
	}
	mp.summaryCacheLookupsCount.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelResult, result)),
	)
}

// isEnabled reports whether instruments exist to record into
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.instrumented && mp.config.OTelEnabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. Recording on a nil provider is a no-op.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
