package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/bulkload/internal/adapters/log"
	"github.com/bft-labs/bulkload/internal/domain"
)

func newTestSink(t *testing.T, handler http.HandlerFunc) *Sink {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sink, err := NewSink(srv.Client(), Config{URL: srv.URL + "/ingest", AuthKey: "key-123"}, "patients", log.NewNoopLogger())
	require.NoError(t, err)
	return sink
}

func sampleRecords() []domain.Record {
	return []domain.Record{{"name": "alice"}, {"name": "bob"}, {"name": "carol"}}
}

func TestSink_PostsChunk(t *testing.T) {
	var got chunkRequest
	var auth, op, agent string

	sink := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		op = r.Header.Get("X-Bulkload-Operation")
		agent = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	})

	res := sink.Apply(context.Background(), domain.OpInsert, sampleRecords())
	assert.Equal(t, domain.ApplyFull, res.Kind)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, "Bearer key-123", auth)
	assert.Equal(t, "patients", op)
	assert.True(t, strings.HasPrefix(agent, "bulkload ("), agent)
	assert.Equal(t, "insert", got.WriteOp)
	assert.Len(t, got.Records, 3)
}

func TestSink_PartialReply(t *testing.T) {
	sink := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"applied": 2, "rejections": ["duplicate name"]}`)
	})

	res := sink.Apply(context.Background(), domain.OpInsert, sampleRecords())
	assert.Equal(t, domain.ApplyPartial, res.Kind)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, res.Rejected(3))
	assert.Equal(t, []string{"duplicate name"}, res.Rejections)
}

func TestSink_ServerError(t *testing.T) {
	sink := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	res := sink.Apply(context.Background(), domain.OpInsert, sampleRecords())
	assert.False(t, res.Succeeded())
	assert.ErrorContains(t, res.Cause, "503")
	assert.ErrorContains(t, res.Cause, "overloaded")
}

func TestSink_UnsupportedOperation(t *testing.T) {
	called := false
	sink := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	res := sink.Apply(context.Background(), domain.OpDelete, sampleRecords())
	assert.ErrorIs(t, res.Cause, domain.ErrUnsupportedOperation)
	assert.False(t, called)
}

func TestClassify(t *testing.T) {
	logger := log.NewNoopLogger()

	tests := []struct {
		name string
		body string
		kind domain.ApplyKind
	}{
		{"empty body", "", domain.ApplyFull},
		{"not json", "ok", domain.ApplyFull},
		{"no applied field", `{"status":"ok"}`, domain.ApplyFull},
		{"all applied", `{"applied": 3}`, domain.ApplyFull},
		{"some applied", `{"applied": 1}`, domain.ApplyPartial},
		{"none applied", `{"applied": 0, "rejections": ["schema mismatch"]}`, domain.ApplyFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, classify([]byte(tt.body), 3, logger).Kind)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, Config{}.Validate(), domain.ErrInvalidConfig)
	assert.NoError(t, Config{URL: "http://localhost:8080/ingest"}.Validate())
}
