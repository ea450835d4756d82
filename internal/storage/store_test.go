package storage

import (
	"testing"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultLimit, ClampLimit(0))
	assert.Equal(t, defaultLimit, ClampLimit(-4))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, maxLimit, ClampLimit(10_000))
}

func TestRecentOptions(t *testing.T) {
	opts := RecentOptions(15)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(15), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "generated_at", Value: -1}}, opts.Sort)
}

func TestBriefRecordBSONFieldNames(t *testing.T) {
	at := time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC)
	rec := models.BriefRecord{
		ID:          "b-1",
		GeneratedAt: at,
		Period:      models.RollingWindow(at, models.DefaultWindowLength),
		SignalCount: 3,
		Risk:        models.Risk{Level: models.RiskModerate, Outlook: "Watch"},
	}

	raw, err := bson.Marshal(rec)
	require.NoError(t, err)

	doc := bson.Raw(raw)
	assert.Equal(t, "b-1", doc.Lookup("id").StringValue())
	assert.Equal(t, int64(3), doc.Lookup("signal_count").AsInt64())
	assert.Equal(t, "moderate", doc.Lookup("risk", "level").StringValue())
	assert.Equal(t, at, doc.Lookup("generated_at").Time().UTC())

	_, err = doc.LookupErr("period", "start")
	assert.NoError(t, err)
}
