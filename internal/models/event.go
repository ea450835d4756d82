package models

import (
	"encoding/json"
	"time"
)

// QuerySpec is one category-tagged query issued against the signal source.
type QuerySpec struct {
	Entity   string `yaml:"entity" json:"entity"`
	Topic    string `yaml:"topic" json:"topic"`
	Category string `yaml:"category" json:"category"`
	Severity string `yaml:"severity" json:"severity"`
}

// Label returns a short human-readable name for logs and tables.
func (q QuerySpec) Label() string {
	if q.Topic == "" {
		return q.Entity
	}
	if q.Entity == "" {
		return q.Topic
	}
	return q.Entity + " / " + q.Topic
}

// QuerySet is an immutable, ordered list of QuerySpecs.
type QuerySet struct {
	specs []QuerySpec
}

// NewQuerySet copies specs into a QuerySet.
func NewQuerySet(specs ...QuerySpec) QuerySet {
	return QuerySet{specs: append([]QuerySpec(nil), specs...)}
}

// Specs returns a copy of the queries in order.
func (qs QuerySet) Specs() []QuerySpec {
	return append([]QuerySpec(nil), qs.specs...)
}

// Len returns the number of queries.
func (qs QuerySet) Len() int {
	return len(qs.specs)
}

// Window is a closed time range [Start, End].
type Window struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// DefaultWindowLength is the rolling collection window.
const DefaultWindowLength = 7 * 24 * time.Hour

// RollingWindow returns [now-length, now] in UTC.
func RollingWindow(now time.Time, length time.Duration) Window {
	now = now.UTC()
	return Window{Start: now.Add(-length), End: now}
}

// Severity levels used by the built-in query set.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// TaggedSignal is a RawSignal decorated with the QuerySpec that produced it.
type TaggedSignal struct {
	Signal   RawSignal `json:"signal"`
	Category string    `json:"category"`
	Severity string    `json:"severity"`
	Entity   string    `json:"entity"`
	Topic    string    `json:"topic"`
}

// Tag wraps a raw signal with the query's metadata.
func Tag(sig RawSignal, q QuerySpec) TaggedSignal {
	return TaggedSignal{
		Signal:   sig,
		Category: q.Category,
		Severity: q.Severity,
		Entity:   q.Entity,
		Topic:    q.Topic,
	}
}

// Timestamp is a shortcut for Signal.Timestamp.
func (t TaggedSignal) Timestamp() time.Time {
	return t.Signal.Timestamp()
}

// EventSet is the deduplicated, time-descending set of tagged signals.
type EventSet []TaggedSignal

// MarshalJSON always emits an array, never null.
func (es EventSet) MarshalJSON() ([]byte, error) {
	if es == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]TaggedSignal(es))
}
