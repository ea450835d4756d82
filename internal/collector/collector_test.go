package collector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/metrics"
	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC)

type fakeSource struct {
	results map[string][]models.RawSignal
	errs    map[string]error
	calls   []models.QuerySpec
	windows []models.Window
}

func (f *fakeSource) Search(_ context.Context, q models.QuerySpec, w models.Window) ([]models.RawSignal, error) {
	f.calls = append(f.calls, q)
	f.windows = append(f.windows, w)
	if err := f.errs[q.Entity]; err != nil {
		return nil, err
	}
	return f.results[q.Entity], nil
}

func raw(t *testing.T, fields map[string]any) models.RawSignal {
	t.Helper()
	sig, err := models.RawSignalFromMap(fields)
	require.NoError(t, err)
	return sig
}

func newTestCollector(src Source, specs ...models.QuerySpec) *Collector {
	return New(src, models.NewQuerySet(specs...), WithClock(func() time.Time { return fixedNow }))
}

func mustCollect(t *testing.T, c *Collector) (models.EventSet, *Report) {
	t.Helper()
	events, report, err := c.Collect(context.Background())
	require.NoError(t, err)
	return events, report
}

var (
	sanctionsQuery = models.QuerySpec{Entity: "Garantex", Topic: "sanctions", Category: "sanctions", Severity: models.SeverityHigh}
	exploitQuery   = models.QuerySpec{Entity: "Lazarus", Topic: "exploit", Category: "exploit", Severity: models.SeverityCritical}
	amlQuery       = models.QuerySpec{Entity: "Tornado", Topic: "laundering", Category: "money-laundering", Severity: models.SeverityMedium}
)

func TestCollectSameURLKeepsLaterTimestamp(t *testing.T) {
	t1 := "2026-10-12T10:00:00Z"
	t2 := "2026-10-14T10:00:00Z"

	src := &fakeSource{results: map[string][]models.RawSignal{
		"Garantex": {raw(t, map[string]any{"url": "https://x/1", "timestamp": t1, "title": "first"})},
		"Lazarus":  {raw(t, map[string]any{"url": "https://x/1", "timestamp": t2, "title": "second"})},
	}}

	events, report := mustCollect(t, newTestCollector(src, sanctionsQuery, exploitQuery))

	require.Len(t, events, 1)
	assert.Equal(t, "exploit", events[0].Category)
	assert.Equal(t, "Lazarus", events[0].Entity)
	assert.Equal(t, "second", events[0].Signal.Title())
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Kept)
	assert.Equal(t, 1, report.Duplicates)
}

func TestCollectSameURLSameTimestampFirstQueryWins(t *testing.T) {
	ts := "2026-10-14T10:00:00Z"
	src := &fakeSource{results: map[string][]models.RawSignal{
		"Garantex": {raw(t, map[string]any{"url": "https://x/1", "timestamp": ts})},
		"Tornado":  {raw(t, map[string]any{"url": "https://x/1", "timestamp": ts})},
	}}

	events, _ := mustCollect(t, newTestCollector(src, sanctionsQuery, amlQuery))

	require.Len(t, events, 1)
	assert.Equal(t, "sanctions", events[0].Category)
}

func TestCollectOrdersDescendingWithUnparseableLast(t *testing.T) {
	src := &fakeSource{results: map[string][]models.RawSignal{
		"Garantex": {
			raw(t, map[string]any{"title": "mid", "timestamp": "2026-10-12T00:00:00Z"}),
			raw(t, map[string]any{"title": "broken", "timestamp": "not a date"}),
			raw(t, map[string]any{"title": "missing"}),
		},
		"Lazarus": {
			raw(t, map[string]any{"title": "new", "timestamp": "2026-10-15T00:00:00Z"}),
			raw(t, map[string]any{"title": "old", "timestamp": 1791000000}),
		},
	}}

	events, _ := mustCollect(t, newTestCollector(src, sanctionsQuery, exploitQuery))

	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1].Timestamp(), events[i].Timestamp()
		assert.False(t, cur.After(prev) && !prev.IsZero(), "entry %d newer than entry %d", i, i-1)
		if prev.IsZero() {
			assert.True(t, cur.IsZero(), "dated entry %d after undated entry", i)
		}
	}
	assert.Equal(t, "new", events[0].Signal.Title())
	assert.Equal(t, "mid", events[1].Signal.Title())
	assert.Equal(t, "old", events[2].Signal.Title())
	assert.True(t, events[3].Timestamp().IsZero())
	assert.True(t, events[4].Timestamp().IsZero())
}

func TestCollectWithoutURLDedupsByContent(t *testing.T) {
	same := map[string]any{"title": "Exchange delisted", "timestamp": "2026-10-12T00:00:00Z", "source": "ofac"}
	differs := map[string]any{"title": "Exchange delisted", "timestamp": "2026-10-12T00:00:00Z", "source": "reuters"}

	src := &fakeSource{results: map[string][]models.RawSignal{
		"Garantex": {raw(t, same), raw(t, same), raw(t, differs)},
	}}

	events, report := mustCollect(t, newTestCollector(src, sanctionsQuery))

	assert.Len(t, events, 2)
	assert.Equal(t, 1, report.Duplicates)
}

func TestCollectWithoutURLDifferentTagsBothSurvive(t *testing.T) {
	fields := map[string]any{"title": "Same story", "timestamp": "2026-10-12T00:00:00Z"}
	src := &fakeSource{results: map[string][]models.RawSignal{
		"Garantex": {raw(t, fields)},
		"Lazarus":  {raw(t, fields)},
	}}

	events, _ := mustCollect(t, newTestCollector(src, sanctionsQuery, exploitQuery))

	assert.Len(t, events, 2)
}

func TestCollectPartialFailureContinues(t *testing.T) {
	src := &fakeSource{
		results: map[string][]models.RawSignal{
			"Lazarus": {raw(t, map[string]any{"url": "https://x/2", "timestamp": "2026-10-15T00:00:00Z"})},
		},
		errs: map[string]error{"Garantex": errors.New("signal API returned 500")},
	}

	events, report := mustCollect(t, newTestCollector(src, sanctionsQuery, exploitQuery, amlQuery))

	assert.Len(t, src.calls, 3)
	require.Len(t, events, 1)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Results, 3)
	assert.Error(t, report.Results[0].Err)
	assert.Equal(t, 1, report.Results[1].Fetched)
}

func TestCollectTotalFailureYieldsEmptySet(t *testing.T) {
	boom := errors.New("network unreachable")
	src := &fakeSource{errs: map[string]error{"Garantex": boom, "Lazarus": boom}}
	rec := metrics.New()

	c := New(src, models.NewQuerySet(sanctionsQuery, exploitQuery),
		WithClock(func() time.Time { return fixedNow }),
		WithMetrics(rec),
	)
	events, report := mustCollect(t, c)

	require.NotNil(t, events)
	assert.Empty(t, events)
	assert.Equal(t, 2, report.Failed)

	b, err := json.Marshal(events)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	n, err := testutil.GatherAndCount(rec.Registry(), "sanctions_radar_collector_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollectUsesSevenDayWindow(t *testing.T) {
	src := &fakeSource{}
	mustCollect(t, newTestCollector(src, sanctionsQuery))

	require.Len(t, src.windows, 1)
	assert.Equal(t, fixedNow, src.windows[0].End)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), src.windows[0].Start)
}

func TestCollectPreservesQueryOrder(t *testing.T) {
	src := &fakeSource{}
	mustCollect(t, newTestCollector(src, amlQuery, sanctionsQuery, exploitQuery))

	require.Len(t, src.calls, 3)
	assert.Equal(t, []string{"Tornado", "Garantex", "Lazarus"},
		[]string{src.calls[0].Entity, src.calls[1].Entity, src.calls[2].Entity})
}

type cancellingSource struct {
	fakeSource
	cancel  context.CancelFunc
	afterOf string
}

func (c *cancellingSource) Search(ctx context.Context, q models.QuerySpec, w models.Window) ([]models.RawSignal, error) {
	res, err := c.fakeSource.Search(ctx, q, w)
	if q.Entity == c.afterOf {
		c.cancel()
	}
	return res, err
}

func TestCollectStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancellingSource{
		fakeSource: fakeSource{results: map[string][]models.RawSignal{
			"Garantex": {raw(t, map[string]any{"url": "https://x/1", "timestamp": "2026-10-14T00:00:00Z"})},
		}},
		cancel:  cancel,
		afterOf: "Garantex",
	}

	events, report, err := newTestCollector(src, sanctionsQuery, exploitQuery, amlQuery).Collect(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, events)
	assert.Len(t, src.calls, 1)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Failed)
}

func TestCollectCancelledSearchIsNotAQueryFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancellingSource{
		fakeSource: fakeSource{errs: map[string]error{"Garantex": errors.New("context canceled")}},
		cancel:     cancel,
		afterOf:    "Garantex",
	}
	rec := metrics.New()

	c := New(src, models.NewQuerySet(sanctionsQuery, exploitQuery),
		WithClock(func() time.Time { return fixedNow }),
		WithMetrics(rec),
	)
	_, report, err := c.Collect(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, src.calls, 1)
	assert.Equal(t, 0, report.Failed)

	n, err := testutil.GatherAndCount(rec.Registry(), "sanctions_radar_collector_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
