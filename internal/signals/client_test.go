package signals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWindow = models.Window{
	Start: time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
}

var testQuery = models.QuerySpec{Entity: "Garantex", Topic: "sanctions", Category: "sanctions", Severity: models.SeverityHigh}

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SearchPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Garantex", req.Entity)
		assert.Equal(t, "sanctions", req.Topic)
		assert.Equal(t, "2026-10-09T00:00:00Z", req.Start)
		assert.Equal(t, "2026-10-16T00:00:00Z", req.End)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"timestamp":"2026-10-15T08:00:00Z","title":"Treasury sanctions exchange","source":"treasury.gov","url":"https://home.treasury.gov/news/1","risk_score":88},
			{"timestamp":"2026-10-14T08:00:00Z","text":"Follow-up coverage"}
		]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	signals, err := client.Search(context.Background(), testQuery, testWindow)

	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, "Treasury sanctions exchange", signals[0].Title())
	assert.Equal(t, "https://home.treasury.gov/news/1", signals[0].URL())
	raw, ok := signals[0].Field("risk_score")
	require.True(t, ok)
	assert.Equal(t, "88", string(raw))
	assert.Equal(t, "Follow-up coverage", signals[1].Headline())
}

func TestSearchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	signals, err := client.Search(context.Background(), testQuery, testWindow)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Nil(t, signals)
}

func TestSearchNonArrayIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"none","data":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	signals, err := client.Search(context.Background(), testQuery, testWindow)

	require.NoError(t, err)
	assert.NotNil(t, signals)
	assert.Empty(t, signals)
}

func TestSearchDoesNotRetryByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.Search(context.Background(), testQuery, testWindow)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchRetryPolicy(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"title":"ok"}]`))
	}))
	defer server.Close()

	client := NewClient("test-key",
		WithBaseURL(server.URL),
		WithPolicy(Policy{Timeout: 5 * time.Second, Retries: 2, RetryWait: 10 * time.Millisecond}),
	)
	signals, err := client.Search(context.Background(), testQuery, testWindow)

	require.NoError(t, err)
	assert.Len(t, signals, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDecodeSignals(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "array", body: `[{"title":"a"},{"title":"b"}]`, want: 2},
		{name: "empty array", body: `[]`, want: 0},
		{name: "object", body: `{"title":"a"}`, want: 0},
		{name: "null", body: `null`, want: 0},
		{name: "string", body: `"oops"`, want: 0},
		{name: "garbage", body: `<html>502</html>`, want: 0},
		{name: "mixed elements", body: `[{"title":"a"},7,"x",null,{"title":"b"}]`, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeSignals([]byte(tt.body))
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}
