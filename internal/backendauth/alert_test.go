package backendauth

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

func TestDenialAlerter_RecordDenial(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetrics("test_alert")
	a := NewDenialAlerter(
		AlertConfig{Rate: 0.001, Burst: 3, Interval: time.Hour},
		observability.NewLoggerFromZap(zap.New(core)),
		metrics,
	)

	for range 3 {
		assert.False(t, a.RecordDenial(), "within burst")
	}
	assert.True(t, a.RecordDenial(), "first denial over budget alerts")
	assert.False(t, a.RecordDenial(), "alert is throttled")

	warnings := logs.FilterLevelExact(zapcore.WarnLevel)
	assert.Equal(t, 1, warnings.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.denialAlerts), 0)
}

func TestDenialAlerter_Defaults(t *testing.T) {
	t.Parallel()

	a := NewDenialAlerter(AlertConfig{Rate: 1}, nil, nil)
	assert.Equal(t, 1, a.cfg.Burst)
	assert.Equal(t, DefaultAlertInterval, a.cfg.Interval)

	assert.False(t, a.RecordDenial())
	assert.True(t, a.RecordDenial())
}

func TestDenialAlerter_Nil(t *testing.T) {
	t.Parallel()

	var a *DenialAlerter
	assert.False(t, a.RecordDenial())
}
