package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/craftbooks/recordstore/internal/schema"
)

// defaultCodeWidth is the minimum digit count for generated codes.
const defaultCodeWidth = 3

// NextSequence returns the next value of the per-prefix monotonic counter:
// strictly increasing by exactly one per successful call. The
// read-increment-write runs as a single read-write transaction scoped to
// the sequence collection, so concurrent callers never observe the same
// value; a failed transaction issues no value and is safe to retry.
func (s *Store) NextSequence(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, fmt.Errorf("next sequence: empty prefix")
	}

	var next int64
	err := s.RunTxn(ctx, []string{schema.SequenceCollection}, ReadWrite, func(t *Txn) error {
		rec, err := t.GetByID(ctx, schema.SequenceCollection, prefix)
		if err != nil {
			return err
		}
		next = counterValue(rec) + 1

		_, err = t.BulkPut(ctx, schema.SequenceCollection, []Record{{
			"key":   prefix,
			"value": next,
		}})
		return err
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// GenerateCode mints the next human-facing document code for the prefix,
// formatted "{prefix}-{number}" with the number zero-padded to at least
// width digits (defaults to 3 when width <= 0). A fresh counter yields
// e.g. "INV-001".
func (s *Store) GenerateCode(ctx context.Context, prefix string, width int) (string, error) {
	if width <= 0 {
		width = defaultCodeWidth
	}
	n, err := s.NextSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, n), nil
}

// counterValue reads the last-issued value off a sequence record. A nil
// record (fresh prefix) counts as zero.
func counterValue(rec Record) int64 {
	if rec == nil {
		return 0
	}
	switch v := rec["value"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
