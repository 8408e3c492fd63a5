// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/homeroom-dev/homeroom/internal/port/messagequeue"
	"github.com/homeroom-dev/homeroom/internal/resilience"
)

const streamName = "HOMEROOM"

// Publish failures trip the breaker so request paths fail fast while the
// broker is down instead of waiting out connection timeouts.
const (
	breakerMaxFailures = 5
	breakerTimeout     = 30 * time.Second
)

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	breaker *resilience.Breaker
}

// Credentials returns a connection option that resolves the user and
// password through fn on every connect attempt, so reloaded secrets
// apply on reconnect without restarting the process. Empty values are
// omitted from the wire protocol.
func Credentials(fn func() (user, pass string)) nats.Option {
	return nats.UserInfoHandler(fn)
}

// Connect establishes a connection to NATS and ensures the JetStream
// stream exists. Extra options (credentials and the like) pass through
// to the underlying client.
func Connect(ctx context.Context, url string, opts ...nats.Option) (*Queue, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	// Ensure the stream exists with subjects matching our topic patterns.
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"tenants.>", "activities.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{
		nc:      nc,
		js:      js,
		breaker: resilience.NewBreaker(breakerMaxFailures, breakerTimeout),
	}, nil
}

// Publish sends a message to the given subject.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	err := q.breaker.Execute(func() error {
		_, err := q.js.Publish(ctx, subject, data)
		return err
	})
	if err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// KeyValue opens the named JetStream KV bucket, creating it if needed.
// Entries expire after ttl.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstream kv %s: %w", bucket, err)
	}
	return kv, nil
}

// Subscribe registers a handler for messages on the given subject.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Subject(), msg.Data()); err != nil {
			slog.Error("message handler failed", "subject", msg.Subject(), "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				slog.Error("nats nak failed", "error", nakErr)
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("nats ack failed", "error", ackErr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}

	return cons.Stop, nil
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the underlying connection is alive.
func (q *Queue) IsConnected() bool {
	return q.nc != nil && q.nc.IsConnected()
}
