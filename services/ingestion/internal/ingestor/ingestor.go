// Package ingestor lands fetched documents in the raw store, deduplicated by
// content.
package ingestor

import (
	"context"
	"fmt"
	"time"

	"talentinsight/common/errors"
	"talentinsight/common/rawstore"
	"talentinsight/common/telemetry"

	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("talentinsight/ingestion/ingestor")

// BatchResult counts the outcome of one IngestBatch call.
type BatchResult struct {
	Stored     int
	Duplicates int
	Rejected   int
}

func (r *BatchResult) add(o BatchResult) {
	r.Stored += o.Stored
	r.Duplicates += o.Duplicates
	r.Rejected += o.Rejected
}

type Ingestor struct {
	store  rawstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func New(store rawstore.Store, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Ingest stores payload under source unless identical content was stored
// before. Payloads that are not a JSON object fail with an INGESTION error.
func (i *Ingestor) Ingest(ctx context.Context, source string, payload []byte) (bool, error) {
	if source == "" {
		return false, errors.Ingestion("source name is empty", nil)
	}
	rec, err := rawstore.NewRecord(source, payload, i.now())
	if err != nil {
		return false, errors.Ingestion(fmt.Sprintf("malformed document for %s", source), err)
	}
	return i.insert(ctx, rec)
}

// IngestDocument is Ingest for an already decoded document.
func (i *Ingestor) IngestDocument(ctx context.Context, source string, doc map[string]any) (bool, error) {
	if source == "" {
		return false, errors.Ingestion("source name is empty", nil)
	}
	canonical, err := rawstore.CanonicalizeDocument(doc)
	if err != nil {
		return false, errors.Ingestion(fmt.Sprintf("malformed document for %s", source), err)
	}
	return i.insert(ctx, rawstore.RawRecord{
		ID:         rawstore.ContentID(source, canonical),
		Source:     source,
		Payload:    canonical,
		IngestedAt: i.now().UTC(),
	})
}

func (i *Ingestor) insert(ctx context.Context, rec rawstore.RawRecord) (bool, error) {
	stored, err := i.store.Insert(ctx, rec)
	if err != nil {
		return false, errors.Unavailable("raw store insert failed", err)
	}
	return stored, nil
}

// IngestBatch ingests every payload, skipping malformed ones. It stops early
// only when the store itself fails.
func (i *Ingestor) IngestBatch(ctx context.Context, source string, payloads [][]byte) (BatchResult, error) {
	return i.batch(ctx, source, len(payloads), func(n int) (bool, error) {
		return i.Ingest(ctx, source, payloads[n])
	})
}

// IngestDocuments is IngestBatch for decoded documents.
func (i *Ingestor) IngestDocuments(ctx context.Context, source string, docs []map[string]any) (BatchResult, error) {
	return i.batch(ctx, source, len(docs), func(n int) (bool, error) {
		return i.IngestDocument(ctx, source, docs[n])
	})
}

func (i *Ingestor) batch(ctx context.Context, source string, size int, ingest func(n int) (bool, error)) (BatchResult, error) {
	ctx, span := tracer.Start(ctx, "Ingestor.batch")
	defer span.End()
	span.SetAttributes(telemetry.String("source", source), telemetry.Int("documents", size))

	var res BatchResult
	for n := 0; n < size; n++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		stored, err := ingest(n)
		switch {
		case errors.IsType(err, errors.ErrTypeIngestion):
			res.Rejected++
			i.logger.Warn("rejected malformed document",
				zap.String("source", source),
				zap.Int("index", n),
				zap.Error(err))
		case err != nil:
			span.RecordError(err)
			return res, err
		case stored:
			res.Stored++
		default:
			res.Duplicates++
		}
	}

	i.logger.Info("ingested batch",
		zap.String("source", source),
		zap.Int("stored", res.Stored),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("rejected", res.Rejected))
	return res, nil
}
