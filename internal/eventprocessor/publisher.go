// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/logging"
	"github.com/tomtom215/peerrec/internal/metrics"
)

var (
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("publisher is closed")

	// ErrPublishTimeout is returned when the backend does not confirm in time.
	ErrPublishTimeout = errors.New("publish timed out")
)

// Publisher sends RefreshedEvents to one topic.
type Publisher struct {
	publisher message.Publisher
	// subscriber is set for the gochannel backend only.
	subscriber message.Subscriber
	cb         *gobreaker.CircuitBreaker[any]
	topic      string
	timeout    time.Duration
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPublisher creates the backend selected by cfg.Backend.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPublisher(cfg config.EventsConfig, breaker config.BreakerConfig, logger zerolog.Logger) (*Publisher, error) {
	wmLogger := logging.NewWatermillAdapter(logger)

	var (
		pub message.Publisher
		sub message.Subscriber
	)
	switch cfg.Backend {
	case "", "gochannel":
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		pub, sub = ch, ch
	case "nats":
		natsPub, err := newNATSPublisher(cfg.NATSURL, wmLogger)
		if err != nil {
			return nil, err
		}
		pub = natsPub
	default:
		return nil, fmt.Errorf("unsupported event backend %q", cfg.Backend)
	}

	p := NewPublisherWith(pub, cfg.Topic, cfg.PublishTimeout, logger)
	p.subscriber = sub
	if breaker.Enabled {
		p.cb = NewCircuitBreaker("events-"+cfg.Backend, breaker)
	}
	return p, nil
}

// NewPublisherWith wraps an existing Watermill publisher.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPublisherWith(pub message.Publisher, topic string, timeout time.Duration, logger zerolog.Logger) *Publisher {
	return &Publisher{
		publisher: pub,
		topic:     topic,
		timeout:   timeout,
		logger:    logger.With().Str("component", "events").Str("topic", topic).Logger(),
	}
}

func newNATSPublisher(url string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("peerrec"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		// Plain core NATS subjects; topics like "recommendations.refreshed" are
		// not valid JetStream stream names.
		JetStream: wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return pub, nil
}

// Topic returns the destination topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// Subscribe returns a channel of events published in this process. It is only
// available with the gochannel backend.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	if p.subscriber == nil {
		return nil, errors.New("subscribe requires the gochannel backend")
	}
	return p.subscriber.Subscribe(ctx, p.topic)
}

// Publish sends event. The event id is the Watermill message UUID and the
// Nats-Msg-Id header.
func (p *Publisher) Publish(ctx context.Context, event *RefreshedEvent) (err error) {
	defer func() { metrics.RecordEventPublish(err) }()

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	data, err := SerializeEvent(event)
	if err != nil {
		return err
	}
	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, event.EventID)
	msg.Metadata.Set("run_id", event.RunID)
	msg.Metadata.Set("table", event.Table)
	msg.SetContext(ctx)

	if p.cb == nil {
		return p.publishWithTimeout(ctx, msg)
	}
	_, err = p.cb.Execute(func() (any, error) {
		return nil, p.publishWithTimeout(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordCircuitBreakerRejection(p.cb.Name())
	}
	return err
}

func (p *Publisher) publishWithTimeout(ctx context.Context, msg *message.Message) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- p.publisher.Publish(p.topic, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("publish %s: %w", msg.UUID, err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrPublishTimeout, p.timeout)
		}
		return ctx.Err()
	}
}

// Close shuts the backend down. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
