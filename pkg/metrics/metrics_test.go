// pkg/metrics/metrics_test.go

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	rec := NewRecorder()

	rec.IncRotation()
	rec.IncRotation()
	rec.IncCacheHit()
	rec.IncCacheMiss()
	rec.IncAuditEvent()
	rec.IncError()

	snap := rec.Counters()
	assert.Equal(t, int64(2), snap.RotationCount)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
	assert.Equal(t, int64(1), snap.AuditEventCount)
	assert.Equal(t, int64(1), snap.ErrorCount)
}

func TestPrometheusViewMatchesCounters(t *testing.T) {
	rec := NewRecorder()
	rec.IncRotation()
	rec.IncRotation()
	rec.IncRotation()

	families, err := rec.Registry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var value float64
	found := false
	for _, family := range families {
		if family.GetName() == "pandora_rotations_total" {
			value = family.GetMetric()[0].GetCounter().GetValue()
			found = true
		}
	}
	require.True(t, found, "pandora_rotations_total not registered")
	assert.Equal(t, float64(3), value)
}

func TestSecretGaugesRegister(t *testing.T) {
	rec := NewRecorder()
	rec.RegisterSecretGauges(
		func() float64 { return 5 },
		func() float64 { return 3 },
	)

	families, err := rec.Registry().Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, family := range families {
		if len(family.GetMetric()) == 1 && family.GetMetric()[0].GetGauge() != nil {
			found[family.GetName()] = family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(5), found["pandora_secrets_total"])
	assert.Equal(t, float64(3), found["pandora_secrets_active"])
}
