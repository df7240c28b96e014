package observability

import (
	"context"
	"testing"

	"wagerengine/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = false

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())

	assert.NotPanics(t, func() {
		mp.RecordTransition("settled")
		mp.RecordPayout(100)
		mp.RecordFraudFlag("repeat_pair", "low")
	})
}

func TestMetricsProvider_NoneExporterDoesNotPanic(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())

	assert.NotPanics(t, func() {
		mp.RecordConflictRetry("join")
		mp.RecordSettlementAttempt(OutcomeSettled)
	})
}

func TestMetricsProvider_NilProvider(t *testing.T) {
	var mp *MetricsProvider
	assert.NotPanics(t, func() {
		mp.RecordLedgerAlert("balance_mismatch")
		mp.RecordJoinOutcome(JoinOutcomeJoined)
	})
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"

	mp := NewMetricsProvider(cfg)
	err := mp.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter type")
}
