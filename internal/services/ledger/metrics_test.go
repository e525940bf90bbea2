package ledger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Inconsistencies(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg)

	m.RecordInconsistency(1)
	m.RecordInconsistency(2)
	m.RecordInconsistency(3)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.inconsistencies))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "swapledger_ledger_inconsistencies_total" {
			continue
		}
		require.Len(t, mf.GetMetric(), 1, "one series regardless of how many users disagree")
		assert.Empty(t, mf.GetMetric()[0].GetLabel())
		return
	}
	t.Fatal("inconsistency counter not registered")
}
