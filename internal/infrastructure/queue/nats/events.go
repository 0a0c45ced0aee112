package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
	"github.com/kirillkom/expert-assistant/internal/infrastructure/resilience"
)

const DefaultSubject = "knowledge.index.rebuilt"

// Events carries index rebuild notifications from the indexer to the
// serving processes. Every subscriber receives every notification.
type Events struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string) (*Events, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Events, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("expert-assistant"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Events{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (e *Events) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

func (e *Events) PublishIndexRebuilt(ctx context.Context, report domain.IndexReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal index report: %w", err)
	}

	call := func(_ context.Context) error {
		if err := e.conn.Publish(e.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		if err := e.conn.FlushTimeout(2 * time.Second); err != nil {
			return fmt.Errorf("nats flush: %w", err)
		}
		return nil
	}

	if e.executor != nil {
		err = e.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapPublishError(err)
	}
	return nil
}

// SubscribeIndexRebuilt blocks until ctx is done, calling handler for
// every notification. Handler errors are logged and do not stop the loop.
func (e *Events) SubscribeIndexRebuilt(ctx context.Context, handler func(context.Context, domain.IndexReport) error) error {
	sub, err := e.conn.Subscribe(e.subject, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		dispatchReport(ctx, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	return holdSubscription(ctx, sub, e.conn.Flush, func() error {
		return e.conn.FlushTimeout(5 * time.Second)
	})
}

// subscription is the part of *nats.Subscription the watch loop needs.
type subscription interface {
	Unsubscribe() error
	Drain() error
}

// holdSubscription confirms the subscription with the server, keeps it
// until ctx is done and drains it. A subscription the server never
// confirmed is removed before returning.
func holdSubscription(ctx context.Context, sub subscription, confirm, settle func() error) error {
	if err := confirm(); err != nil {
		if unsubErr := sub.Unsubscribe(); unsubErr != nil {
			slog.Warn("nats_unsubscribe_failed", "error", unsubErr)
		}
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := settle(); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func dispatchReport(ctx context.Context, data []byte, handler func(context.Context, domain.IndexReport) error) {
	var report domain.IndexReport
	if err := json.Unmarshal(data, &report); err != nil {
		slog.Warn("index_event_decode_failed", "error", err)
		return
	}

	handlerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := handler(handlerCtx, report); err != nil {
		slog.Error("index_event_handler_failed", "source", report.SourcePath, "segments", report.Segments, "error", err)
	}
}
