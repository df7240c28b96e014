package infrastructure

import (
	"context"

	"wagerengine/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// LoggingAlertSink writes alerts to the error log where paging picks them up
type LoggingAlertSink struct{}

// NewLoggingAlertSink creates the default alert sink
func NewLoggingAlertSink() *LoggingAlertSink {
	return &LoggingAlertSink{}
}

// Alert logs the alert with alert=true and counts it
func (s *LoggingAlertSink) Alert(ctx context.Context, subject string, err error, fields map[string]any) {
	entry := log.WithFields(log.Fields{
		"alert":   true,
		"subject": subject,
	})
	if len(fields) > 0 {
		entry = entry.WithFields(log.Fields(fields))
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error("Operational alert raised")

	observability.GetMetrics().RecordLedgerAlert(subject)
}
