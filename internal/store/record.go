package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout is the wire format for created_at/updated_at stamps.
const timeLayout = time.RFC3339

// Record is an untyped field bag. Field contents are not schema-validated;
// the only structural guarantees are the primary-key field and the
// engine-maintained created_at/updated_at stamps. Numbers decode as
// json.Number to avoid float64 precision loss for values > 2^53.
type Record map[string]any

// Clone returns a shallow copy. CRUD operations clone before stamping so
// caller-owned maps are never mutated.
func (r Record) Clone() Record {
	out := make(Record, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// primaryKey extracts the record's value for the given key field as a
// string, or "" when absent or not a string.
func (r Record) primaryKey(field string) string {
	s, _ := r[field].(string)
	return s
}

// newID mints a time-sortable UUIDv7 primary key.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// encodeRecord serializes a record to JSON TEXT for the data column.
// HTML escaping is disabled so payloads round-trip byte-for-byte.
func encodeRecord(r Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// decodeRecord parses JSON TEXT from the data column. Uses json.Number so
// large integers survive the round trip.
func decodeRecord(data string) (Record, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

// stamp fills created_at/updated_at when the record does not carry them.
func (r Record) stamp(now time.Time) {
	ts := now.UTC().Format(timeLayout)
	if _, ok := r["created_at"]; !ok {
		r["created_at"] = ts
	}
	if _, ok := r["updated_at"]; !ok {
		r["updated_at"] = ts
	}
}

// normalizeValue collapses the numeric types a field value can arrive as
// (caller-supplied int/float, decoded json.Number) so equality filters
// compare by value rather than representation.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// valueEqual reports whether two field values are equal after numeric
// normalization.
func valueEqual(a, b any) bool {
	return normalizeValue(a) == normalizeValue(b)
}

// bindValue converts a filter value into a driver-friendly binding.
// json.Number must not bind as TEXT or SQLite would compare a string
// against the numeric json_extract result.
func bindValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}
