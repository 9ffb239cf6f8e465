package rawstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var namespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// RawRecord is one fetched document as it landed. Records are append-only:
// the store never updates or deletes them.
type RawRecord struct {
	ID         string
	Source     string
	Payload    json.RawMessage
	IngestedAt time.Time
}

// Document decodes the payload into a generic object. Numbers stay
// json.Number so cleaners decide how to coerce them.
func (r RawRecord) Document() (map[string]any, error) {
	return decodeObject(r.Payload)
}

type Store interface {
	// Insert stores rec unless a record with the same ID exists. It reports
	// whether a new row was written.
	Insert(ctx context.Context, rec RawRecord) (bool, error)
	// Scan calls fn for every record of source in ingestion order.
	Scan(ctx context.Context, source string, fn func(RawRecord) error) error
	// Counts returns stored records per source.
	Counts(ctx context.Context) (map[string]int, error)
	Close() error
}

// Canonicalize returns the order-independent serialization of a JSON object:
// keys sorted at every depth, numbers kept verbatim, no insignificant
// whitespace. Anything other than a single JSON object is rejected.
func Canonicalize(payload []byte) ([]byte, error) {
	obj, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}
	return marshalCanonical(obj)
}

// CanonicalizeDocument is Canonicalize for an already decoded document.
func CanonicalizeDocument(doc map[string]any) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	return marshalCanonical(doc)
}

// ContentID derives the record identifier from the source name and the
// canonical payload. Identical content from the same source always maps to
// the same ID.
func ContentID(source string, canonical []byte) string {
	ns := uuid.NewSHA1(namespace, []byte(source))
	return uuid.NewSHA1(ns, canonical).String()
}

// NewRecord canonicalizes payload and stamps the record.
func NewRecord(source string, payload []byte, now time.Time) (RawRecord, error) {
	canonical, err := Canonicalize(payload)
	if err != nil {
		return RawRecord{}, err
	}
	return RawRecord{
		ID:         ContentID(source, canonical),
		Source:     source,
		Payload:    canonical,
		IngestedAt: now.UTC(),
	}, nil
}

func decodeObject(payload []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("document is not a JSON object")
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after document")
	}
	return obj, nil
}

func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// encoding/json writes map keys in sorted order.
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
