package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Snippet(OutcomePassed)
	m.Snippet(OutcomePassed)
	m.Snippet(OutcomeCached)
	m.Document(nil)
	m.Document(errors.New("boom"))
	m.ObserveExecution(1500 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.snippets.WithLabelValues(OutcomePassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snippets.WithLabelValues(OutcomeCached)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.snippets.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documents.WithLabelValues(ResultError)))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Snippet(OutcomeFailed)
		m.Document(nil)
		m.ObserveExecution(time.Second)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.Snippet(OutcomeFailed)

	path := filepath.Join(t.TempDir(), "docgen.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docgen_snippets_total{outcome="failed"} 1`)
}
