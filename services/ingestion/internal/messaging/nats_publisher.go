package messaging

import (
	"context"
	"time"

	"talentinsight/common/errors"
	"talentinsight/common/events"
	"talentinsight/common/telemetry"
	"talentinsight/services/ingestion/internal/config"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("talentinsight/ingestion/messaging")

type Publisher interface {
	PublishBatchIngested(ctx context.Context, ev events.RawBatchIngested) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewPublisher(logger *zap.Logger, config *config.Config) (Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(config.NATSConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, errors.Unavailable("connecting to NATS", err)
	}

	return NewPublisherFromConn(conn, logger), nil
}

func NewPublisherFromConn(conn *nats.Conn, logger *zap.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger,
	}
}

func (p *natsPublisher) PublishBatchIngested(ctx context.Context, ev events.RawBatchIngested) error {
	_, span := tracer.Start(ctx, "PublishBatchIngested")
	defer span.End()

	data, err := ev.MarshalBinary()
	if err != nil {
		span.RecordError(err)
		return errors.Internal("marshaling batch event", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", events.RawBatchIngestedSubject),
		telemetry.Int("message.size", len(data)),
	)

	if err := p.conn.Publish(events.RawBatchIngestedSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish batch event",
			zap.String("cycle_id", ev.CycleID),
			zap.Error(err))
		return errors.Unavailable("publishing to NATS", err)
	}

	p.logger.Debug("published batch event",
		zap.String("cycle_id", ev.CycleID),
		zap.String("subject", events.RawBatchIngestedSubject))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// LogPublisher stands in when no broker is configured; the processing side
// then runs on its own schedule.
type LogPublisher struct {
	Logger *zap.Logger
}

func (p LogPublisher) PublishBatchIngested(ctx context.Context, ev events.RawBatchIngested) error {
	p.Logger.Info("batch ingested",
		zap.String("cycle_id", ev.CycleID),
		zap.Int("stored", ev.StoredTotal()),
		zap.Strings("failed_sources", ev.Failed))
	return nil
}

func (p LogPublisher) Close() {}
