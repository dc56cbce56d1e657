package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCall_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(aiCallsTotal.WithLabelValues("cloud", "capable", "rate_limited"))
	ObserveCall("Cloud", "capable", "rate_limited", 120*time.Millisecond)
	ObserveCall("cloud", "capable", "rate_limited", 80*time.Millisecond)
	after := testutil.ToFloat64(aiCallsTotal.WithLabelValues("cloud", "capable", "rate_limited"))
	assert.Equal(t, 2.0, after-before)
}

func TestSetQueueDepth(t *testing.T) {
	SetQueueDepth(7, 2)
	assert.Equal(t, 7.0, testutil.ToFloat64(queueDepth.WithLabelValues("pending")))
	assert.Equal(t, 2.0, testutil.ToFloat64(queueDepth.WithLabelValues("in_flight")))
}

func TestMustRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})
}

func TestRegisterWith_FreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterWith(reg))
	// a second pass over the same registry is a no-op
	require.NoError(t, RegisterWith(reg))

	ObserveHTTP("/api/v1/ai/chat", 200, 10*time.Millisecond)
	n, err := testutil.GatherAndCount(reg, "http_request_duration_seconds")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}
