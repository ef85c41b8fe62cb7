package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(statusTransitions.WithLabelValues(SourceManual, "draft", "confirmed"))
	RecordTransition(SourceManual, "draft", "confirmed")
	after := testutil.ToFloat64(statusTransitions.WithLabelValues(SourceManual, "draft", "confirmed"))
	assert.Equal(t, before+1, after)
}

func TestRecordGatewayOutcome(t *testing.T) {
	before := testutil.ToFloat64(gatewayOutcomes.WithLabelValues("unchanged"))
	RecordGatewayOutcome("unchanged")
	assert.Equal(t, before+1, testutil.ToFloat64(gatewayOutcomes.WithLabelValues("unchanged")))
}

func TestObserveBatch(t *testing.T) {
	ObserveBatch(SourceAutomatic, 50*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(batchDuration))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/health", "200"))
	RecordHTTPRequest("GET", "/health", 200, 3*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/health", "200")))
}
