package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// WagerEventStream holds every subject the engine publishes on
const WagerEventStream = "wager_events"

// WagerEventSubjects are the subject filters captured by WagerEventStream
var WagerEventSubjects = []string{"wagers.>", "wallets.>", "fraud.>", "notifications.>"}

var errNotConnected = errors.New("not connected to NATS JetStream")

// NATSClient publishes engine events to JetStream
type NATSClient struct {
	servers        string
	nc             *nats.Conn
	js             nats.JetStreamContext
	reconnectWait  time.Duration
	maxReconnects  int
	streamMaxAge   time.Duration
	publishTimeout time.Duration
}

// NewNATSClient creates a client for a comma-separated server list
func NewNATSClient(servers string) *NATSClient {
	return &NATSClient{
		servers:        servers,
		reconnectWait:  2 * time.Second,
		maxReconnects:  10,
		streamMaxAge:   7 * 24 * time.Hour,
		publishTimeout: 5 * time.Second,
	}
}

func (c *NATSClient) connectionOptions() []nats.Option {
	return []nats.Option{
		nats.Name(SourceService),
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("NATS disconnected")
				return
			}
			log.Info("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.WithError(err).Error("NATS async error")
		}),
	}
}

// Connect dials the servers and opens a JetStream context. The server must
// answer within ctx.
func (c *NATSClient) Connect(ctx context.Context) error {
	opts := c.connectionOptions()
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(c.servers, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", c.servers, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.nc = nc
	c.js = js
	log.WithField("servers", c.servers).Info("Connected to NATS with JetStream")
	return nil
}

// EnsureWagerEventStream creates the wager_events stream, or widens its
// subjects when an older deployment created it with fewer
func (c *NATSClient) EnsureWagerEventStream() error {
	if c.js == nil {
		return errNotConnected
	}

	info, err := c.js.StreamInfo(WagerEventStream)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		_, err = c.js.AddStream(c.wagerStreamConfig())
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", WagerEventStream, err)
		}
		log.WithField("stream", WagerEventStream).Info("Created JetStream stream")
		return nil
	case err != nil:
		return fmt.Errorf("failed to read stream %s: %w", WagerEventStream, err)
	}

	if coversSubjects(info.Config.Subjects, WagerEventSubjects) {
		return nil
	}

	cfg := info.Config
	cfg.Subjects = WagerEventSubjects
	if _, err := c.js.UpdateStream(&cfg); err != nil {
		return fmt.Errorf("failed to update stream %s: %w", WagerEventStream, err)
	}
	log.WithFields(log.Fields{
		"stream":   WagerEventStream,
		"subjects": WagerEventSubjects,
	}).Info("Updated JetStream stream subjects")
	return nil
}

func (c *NATSClient) wagerStreamConfig() *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:        WagerEventStream,
		Description: "Wager transitions, ledger changes, fraud flags and notifications",
		Subjects:    WagerEventSubjects,
		Retention:   nats.LimitsPolicy,
		Storage:     nats.FileStorage,
		MaxAge:      c.streamMaxAge,
		Duplicates:  2 * time.Minute,
		Replicas:    1,
	}
}

func coversSubjects(have, want []string) bool {
	for _, s := range want {
		if !slices.Contains(have, s) {
			return false
		}
	}
	return true
}

// Publish sends data to subject and waits for the stream acknowledgement
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if c.js == nil {
		return errNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.publishTimeout)
		defer cancel()
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")

	ack, err := c.js.PublishMsg(msg, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"subject":  subject,
		"sequence": ack.Sequence,
		"size":     len(data),
	}).Debug("Published message to NATS")
	return nil
}

// IsConnected reports whether the connection is currently up
func (c *NATSClient) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Close drains pending publishes and closes the connection
func (c *NATSClient) Close() error {
	if c.nc == nil {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	log.Info("NATS connection closed")
	return nil
}
