package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/teampro-ai/teampro/libs/kafkax"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Inbox de-duplicates deliveries by event id.
type Inbox interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Reader is the part of kafka.Reader the consumer uses. Offsets are committed
// explicitly, only once a message has been handled or deliberately dropped.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     Reader
	logger     *slog.Logger
	inbox      Inbox
	handler    Handler
	minBackoff time.Duration
	maxBackoff time.Duration
}

type Config struct {
	Brokers []string
	GroupID string
	Topics  []string
}

func New(logger *slog.Logger, inbox Inbox, cfg Config, handler Handler) *Consumer {
	return NewWithReader(logger, inbox, kafkax.NewReader(cfg.Brokers, cfg.GroupID, cfg.Topics...), handler)
}

func NewWithReader(logger *slog.Logger, inbox Inbox, reader Reader, handler Handler) *Consumer {
	return &Consumer{
		reader:     reader,
		logger:     logger,
		inbox:      inbox,
		handler:    handler,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch error", "err", err)
			if !sleep(ctx, c.minBackoff) {
				return
			}
			continue
		}
		if !c.handle(ctx, msg) {
			return
		}
	}
}

// handle processes msg until it succeeds, then commits its offset. The reader
// does not rewind, so a failed message is retried in place with backoff.
// It reports false when ctx is cancelled first; the offset stays uncommitted
// and the group redelivers the message after a restart or rebalance.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	backoff := c.minBackoff
	for {
		err := c.process(ctx, msg)
		if err == nil {
			break
		}
		if !sleep(ctx, backoff) {
			return false
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
	for {
		err := c.reader.CommitMessages(ctx, msg)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		c.logger.Error("kafka commit error", "err", err, "topic", msg.Topic, "offset", msg.Offset)
		if !sleep(ctx, c.minBackoff) {
			return false
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// process runs the handler once for msg. A nil error means the message may be
// committed: it was handled, or it was a duplicate.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	log := c.logger.With("event_id", meta.EventID, "event_type", meta.EventType, "request_id", meta.RequestID)

	ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
	if err != nil {
		log.Error("inbox record failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "inbox")
		return err
	}
	if !ok {
		log.Info("duplicate event ignored")
		return nil
	}

	if err := c.handler(ctxSpan, msg); err != nil {
		log.Error("handler error", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler")
		if ferr := c.inbox.Forget(ctxSpan, meta.EventID); ferr != nil {
			log.Error("inbox forget failed", "err", ferr)
		}
		return err
	}
	return nil
}
