package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDispatch(t *testing.T) {
	before := testutil.ToFloat64(dispatchTotal.WithLabelValues("mail", StatusSent))

	RecordDispatch("mail", StatusSent, 20*time.Millisecond)
	RecordDispatch("mail", StatusSent, 30*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(dispatchTotal.WithLabelValues("mail", StatusSent)))
}

func TestRecordJob(t *testing.T) {
	before := testutil.ToFloat64(jobsTotal.WithLabelValues("slack", StatusDuplicate))

	RecordJob("slack", StatusDuplicate)

	assert.Equal(t, before+1, testutil.ToFloat64(jobsTotal.WithLabelValues("slack", StatusDuplicate)))
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("vonage", 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(circuitBreakerState.WithLabelValues("vonage")))

	SetCircuitBreakerState("vonage", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(circuitBreakerState.WithLabelValues("vonage")))
}
