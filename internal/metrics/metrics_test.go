package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"ReviewDesk/internal/domain"
)

func TestRecorders(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRefresh(150 * time.Millisecond)
	m.SourceFailed("careers", domain.SourceTimeout)
	m.SourceFailed("careers", domain.SourceTimeout)
	m.SourceEvents("abstracts", 7)
	m.Dispatch(true)
	m.Dispatch(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sourceFailures.WithLabelValues("careers", "timeout")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.sourceEvents.WithLabelValues("abstracts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("failed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh(time.Second)
		m.SourceFailed("x", domain.SourcePanic)
		m.SourceEvents("x", 1)
		m.Dispatch(true)
	})
}
