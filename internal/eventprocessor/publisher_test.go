// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package eventprocessor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/peerrec/internal/config"
	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/recommend"
)

func testEventsConfig() config.EventsConfig {
	return config.EventsConfig{
		Enabled:        true,
		Backend:        "gochannel",
		Topic:          "recommendations.refreshed",
		PublishTimeout: time.Second,
	}
}

func testReport() *recommend.RunReport {
	return &recommend.RunReport{
		RunID: "run-1",
		Seed:  42,
		K:     4,
		Path:  recommend.AttributePath{1, 2},
		Rows: []recommend.ExportRow{
			{Key: []any{"shoes", "acme"}, ItemIDs: []any{"a", "b", "c", "d"}},
			{Key: []any{"bags", "acme"}, ItemIDs: []any{"e", "f", "g", "h"}},
		},
		Fallbacks:   recommend.FallbackStats{PeerBorrowed: 1},
		CompletedAt: time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC),
	}
}

// stubPublisher is a message.Publisher with scripted behavior.
type stubPublisher struct {
	err   error
	block chan struct{}
	calls int
}

func (s *stubPublisher) Publish(_ string, _ ...*message.Message) error {
	s.calls++
	if s.block != nil {
		<-s.block
	}
	return s.err
}

func (s *stubPublisher) Close() error { return nil }

func TestRefreshedEvent_Validate(t *testing.T) {
	valid := NewRefreshedEvent(testReport(), "content_filtered")

	tests := []struct {
		name    string
		mutate  func(e *RefreshedEvent)
		wantErr string
	}{
		{name: "valid", mutate: func(*RefreshedEvent) {}},
		{name: "missing event id", mutate: func(e *RefreshedEvent) { e.EventID = "" }, wantErr: "event_id"},
		{name: "missing run id", mutate: func(e *RefreshedEvent) { e.RunID = "" }, wantErr: "run_id"},
		{name: "missing table", mutate: func(e *RefreshedEvent) { e.Table = "" }, wantErr: "table"},
		{name: "zero k", mutate: func(e *RefreshedEvent) { e.K = 0 }, wantErr: "k must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := *valid
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewRefreshedEvent(t *testing.T) {
	e := NewRefreshedEvent(testReport(), "content_filtered")
	if e.EventID == "" {
		t.Error("EventID is empty")
	}
	if e.Rows != 2 || e.K != 4 || e.Seed != 42 || e.Fallbacks.PeerBorrowed != 1 {
		t.Errorf("event = %+v", e)
	}
	if e.SnapshotVersion != 0 {
		t.Errorf("SnapshotVersion = %d, want 0 without a snapshot", e.SnapshotVersion)
	}
	saved := testReport()
	saved.SnapshotVersion = 7
	if got := NewRefreshedEvent(saved, "content_filtered").SnapshotVersion; got != 7 {
		t.Errorf("SnapshotVersion = %d, want 7", got)
	}
	if other := NewRefreshedEvent(testReport(), "content_filtered"); other.EventID == e.EventID {
		t.Error("event ids repeat across events")
	}
}

func TestSerializeEvent(t *testing.T) {
	e := NewRefreshedEvent(testReport(), "content_filtered")
	data, err := SerializeEvent(e)
	if err != nil {
		t.Fatalf("SerializeEvent() error = %v", err)
	}
	if !strings.Contains(string(data), `"path":[1,2]`) {
		t.Errorf("payload %s does not carry the path", data)
	}

	e.RunID = ""
	if _, err := SerializeEvent(e); err == nil {
		t.Error("SerializeEvent() accepted an invalid event")
	}
	if _, err := DeserializeEvent([]byte("{")); err == nil {
		t.Error("DeserializeEvent() accepted malformed JSON")
	}
}

func TestNewPublisher_UnsupportedBackend(t *testing.T) {
	cfg := testEventsConfig()
	cfg.Backend = "kafka"
	if _, err := NewPublisher(cfg, config.BreakerConfig{}, zerolog.Nop()); err == nil {
		t.Error("NewPublisher() accepted an unsupported backend")
	}
}

func TestRunListener_GoChannel(t *testing.T) {
	pub, err := NewPublisher(testEventsConfig(), config.BreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Second,
		FailureThreshold: 3,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pub.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	listener := NewRunListener(pub, "content_filtered")
	successBefore := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("success"))

	if err := listener.OnRunFinished(ctx, testReport()); err != nil {
		t.Fatalf("OnRunFinished() error = %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		event, err := DeserializeEvent(msg.Payload)
		if err != nil {
			t.Fatalf("DeserializeEvent() error = %v", err)
		}
		if event.RunID != "run-1" || event.Table != "content_filtered" || event.Rows != 2 {
			t.Errorf("event = %+v", event)
		}
		if msg.UUID != event.EventID {
			t.Errorf("message uuid %s, event id %s", msg.UUID, event.EventID)
		}
		if msg.Metadata.Get("run_id") != "run-1" {
			t.Errorf("run_id metadata = %q", msg.Metadata.Get("run_id"))
		}
	case <-ctx.Done():
		t.Fatal("no event received")
	}

	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("success")) - successBefore; got != 1 {
		t.Errorf("success counter increased by %v, want 1", got)
	}
}

func TestRunListener_SkipsFailedAndDryRuns(t *testing.T) {
	stub := &stubPublisher{}
	listener := NewRunListener(NewPublisherWith(stub, "t", time.Second, zerolog.Nop()), "content_filtered")

	failed := testReport()
	failed.Error = "store unavailable"
	dry := testReport()
	dry.DryRun = true

	for _, report := range []*recommend.RunReport{failed, dry} {
		if err := listener.OnRunFinished(context.Background(), report); err != nil {
			t.Errorf("OnRunFinished() error = %v", err)
		}
	}
	if stub.calls != 0 {
		t.Errorf("backend called %d times, want 0", stub.calls)
	}
}

func TestPublisher_Timeout(t *testing.T) {
	stub := &stubPublisher{block: make(chan struct{})}
	defer close(stub.block)

	pub := NewPublisherWith(stub, "t", 20*time.Millisecond, zerolog.Nop())
	err := pub.Publish(context.Background(), NewRefreshedEvent(testReport(), "content_filtered"))
	if !errors.Is(err, ErrPublishTimeout) {
		t.Errorf("Publish() error = %v, want ErrPublishTimeout", err)
	}
}

func TestPublisher_BreakerOpens(t *testing.T) {
	stub := &stubPublisher{err: errors.New("nats: no responders")}
	pub := NewPublisherWith(stub, "t", time.Second, zerolog.Nop())
	pub.cb = NewCircuitBreaker("events-test", config.BreakerConfig{
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := pub.Publish(ctx, NewRefreshedEvent(testReport(), "t")); err == nil {
			t.Fatalf("Publish() %d succeeded against a failing backend", i)
		}
	}

	err := pub.Publish(ctx, NewRefreshedEvent(testReport(), "t"))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Publish() error = %v, want open breaker", err)
	}
	if stub.calls != 2 {
		t.Errorf("backend called %d times, want 2", stub.calls)
	}
}

func TestPublisher_Closed(t *testing.T) {
	pub := NewPublisherWith(&stubPublisher{}, "t", time.Second, zerolog.Nop())
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	err := pub.Publish(context.Background(), NewRefreshedEvent(testReport(), "t"))
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish() error = %v, want ErrPublisherClosed", err)
	}
	if _, err := pub.Subscribe(context.Background()); err == nil {
		t.Error("Subscribe() without gochannel backend succeeded")
	}
}
