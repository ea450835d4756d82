package collector

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
)

// SortDescending orders signals newest first. The sort is stable so ties
// keep accumulation order; signals without a usable timestamp sort last.
func SortDescending(es models.EventSet) {
	type keyed struct {
		at  time.Time
		sig models.TaggedSignal
	}
	items := make([]keyed, len(es))
	for i, ts := range es {
		items[i] = keyed{at: ts.Timestamp(), sig: ts}
	}

	sort.SliceStable(items, func(a, b int) bool {
		ta, tb := items[a].at, items[b].at
		switch {
		case ta.IsZero():
			return false
		case tb.IsZero():
			return true
		default:
			return ta.After(tb)
		}
	})

	for i := range items {
		es[i] = items[i].sig
	}
}

// DedupKey returns the deduplication key of a signal: its URL when present,
// otherwise a fingerprint of the whole tagged entry.
func DedupKey(ts models.TaggedSignal) string {
	if u := ts.Signal.URL(); u != "" {
		return "url:" + u
	}
	return "fp:" + Fingerprint(ts)
}

// Fingerprint hashes a canonical serialization of the tagged entry. Object
// keys are sorted and numbers keep their literal form, so two entries with
// the same fields produce the same fingerprint regardless of key order.
func Fingerprint(ts models.TaggedSignal) string {
	raw, err := json.Marshal(ts)
	if err != nil {
		// RawSignal always marshals; fall back to the raw field listing.
		raw = []byte(ts.Category + "|" + ts.Severity + "|" + ts.Entity + "|" + ts.Topic)
	}

	canonical := canonicalJSON(raw)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

func canonicalJSON(raw []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return out
}

// Dedup keeps the first occurrence of every key. Callers sort first so the
// most recent occurrence survives.
func Dedup(es models.EventSet) models.EventSet {
	seen := make(map[string]struct{}, len(es))
	out := make(models.EventSet, 0, len(es))
	for _, ts := range es {
		key := DedupKey(ts)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ts)
	}
	return out
}
