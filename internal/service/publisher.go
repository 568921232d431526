// Package service publishes table events to NATS JetStream.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/t77yq/cronmgr/internal/model"
)

// DefaultStream is the JetStream stream holding table events
const DefaultStream = "CRONTAB"

// EventPublisher delivers table events
type EventPublisher interface {
	Publish(ctx context.Context, event *model.TableEvent) error
	Close() error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *model.TableEvent) error { return nil }
func (NopPublisher) Close() error                                     { return nil }

// NATSConfig configures the NATS publisher
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	Stream        string
	MaxAttempts   int
	Backoff       ExponentialBackoff
}

// NATSPublisher publishes events on <prefix>.<kind> subjects
type NATSPublisher struct {
	logger *zap.Logger
	nc     *nats.Conn
	js     nats.JetStreamContext
	prefix string
}

// ConnectNATS dials NATS with exponential backoff, ensures the event stream
// exists and returns a publisher owning the connection.
func ConnectNATS(ctx context.Context, config NATSConfig, logger *zap.Logger) (*NATSPublisher, error) {
	logger = logger.Named("events")
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.Backoff.InitialDelay <= 0 {
		config.Backoff = DefaultBackoff
	}

	opts := []nats.Option{
		nats.Name("cronmgr"),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected",
				zap.String("url", nc.ConnectedUrl()))
		}),
	}

	var nc *nats.Conn
	var err error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		nc, err = nats.Connect(config.URL, opts...)
		if err == nil {
			break
		}

		delay := config.Backoff.NextRetry(attempt)
		logger.Warn("Failed to connect to NATS, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrConnect, ctx.Err())
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrConnect, config.MaxAttempts, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := EnsureStream(js, config.Stream, config.SubjectPrefix); err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("Connected to NATS",
		zap.String("url", nc.ConnectedUrl()))

	p := NewNATSPublisher(js, config.SubjectPrefix, logger)
	p.nc = nc
	return p, nil
}

// EnsureStream creates the event stream unless it already exists
func EnsureStream(js nats.JetStreamContext, name, prefix string) error {
	if name == "" {
		name = DefaultStream
	}
	stream, err := js.StreamInfo(name)
	if err != nil && err != nats.ErrStreamNotFound {
		return fmt.Errorf("failed to get stream info: %w", err)
	}
	if stream != nil {
		return nil
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{subjectPrefix(prefix) + ".>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// NewNATSPublisher creates a publisher on an existing JetStream context. The
// caller keeps ownership of the connection.
func NewNATSPublisher(js nats.JetStreamContext, prefix string, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{
		logger: logger,
		js:     js,
		prefix: subjectPrefix(prefix),
	}
}

func subjectPrefix(prefix string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return "cronmgr"
	}
	return prefix
}

// Subject returns the subject an event kind is published on
func (p *NATSPublisher) Subject(kind model.EventKind) string {
	return p.prefix + "." + string(kind)
}

// Publish implements EventPublisher.Publish
func (p *NATSPublisher) Publish(ctx context.Context, event *model.TableEvent) error {
	if event == nil || event.Kind == "" {
		return ErrInvalidEvent
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var opts []nats.PubOpt
	if _, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Context(ctx))
	}

	subject := p.Subject(event.Kind)
	if _, err := p.js.Publish(subject, data, opts...); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("event_id", event.ID),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Event published",
		zap.String("event_id", event.ID),
		zap.String("subject", subject))
	return nil
}

// Subscribe delivers events of every kind to handler until ctx is done
func (p *NATSPublisher) Subscribe(ctx context.Context, handler func(*model.TableEvent)) error {
	sub, err := p.js.Subscribe(p.prefix+".>", func(msg *nats.Msg) {
		var event model.TableEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			p.logger.Error("Failed to unmarshal event", zap.Error(err))
			msg.Term()
			return
		}

		handler(&event)
		msg.Ack()
	}, nats.DeliverNew())
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	go func() {
		<-ctx.Done()
		sub.Unsubscribe()
	}()

	return nil
}

// Close drains and closes the connection when the publisher owns it
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
