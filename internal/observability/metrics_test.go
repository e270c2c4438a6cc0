package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecording(t *testing.T) {
	t.Parallel()

	m := NewMetrics("identity")
	m.RecordTokenIssued("myClient", "password")
	m.RecordTokenIssued("myClient", "password")
	m.RecordTokenRejected("invalid_grant")
	m.RecordTokenRevoked()
	m.RecordDecision("/api/values", "deny")
	m.RecordRequest("/connect/token", "POST", 200, 5*time.Millisecond)
	m.RecordError("/connect/token", "POST", "invalid_client")

	assert.InDelta(t, 2, testutil.ToFloat64(m.tokensIssued.WithLabelValues("myClient", "password")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tokensRejected.WithLabelValues("invalid_grant")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tokensRevoked), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.decisions.WithLabelValues("/api/values", "deny")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.requestCount.WithLabelValues("/connect/token", "POST", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorCount.WithLabelValues("/connect/token", "POST", "invalid_client")), 0)
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTokenIssued("c", "password")
		m.RecordTokenRejected("x")
		m.RecordTokenRevoked()
		m.RecordDecision("/", "allow")
		m.RecordRequest("/", "GET", 200, time.Second)
		m.RecordError("/", "GET", "X")
	})
}
