package collector

import (
	"testing"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortDescendingOutsideNanosecondRange(t *testing.T) {
	q := models.QuerySpec{Entity: "Garantex", Category: "sanctions", Severity: models.SeverityHigh}
	es := models.EventSet{
		models.Tag(raw(t, map[string]any{"title": "now", "timestamp": "2026-10-14T00:00:00Z"}), q),
		models.Tag(raw(t, map[string]any{"title": "undated"}), q),
		models.Tag(raw(t, map[string]any{"title": "far future", "timestamp": "2300-01-01T00:00:00Z"}), q),
		models.Tag(raw(t, map[string]any{"title": "far past", "timestamp": "1600-01-01T00:00:00Z"}), q),
	}

	SortDescending(es)

	require.Len(t, es, 4)
	titles := make([]string, len(es))
	for i, ts := range es {
		titles[i] = ts.Signal.Title()
	}
	assert.Equal(t, []string{"far future", "now", "far past", "undated"}, titles)
}

func TestSortDescendingIsStableForTies(t *testing.T) {
	ts := "2026-10-14T00:00:00Z"
	a := models.Tag(raw(t, map[string]any{"title": "a", "timestamp": ts}), models.QuerySpec{Category: "sanctions"})
	b := models.Tag(raw(t, map[string]any{"title": "b", "timestamp": ts}), models.QuerySpec{Category: "exploit"})
	es := models.EventSet{a, b}

	SortDescending(es)

	assert.Equal(t, "a", es[0].Signal.Title())
	assert.Equal(t, "b", es[1].Signal.Title())
}
