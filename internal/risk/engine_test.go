package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecal/secureband-ai/internal/models"
	"github.com/pulsecal/secureband-ai/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(models.NewRegistry())
	require.NoError(t, err)
	return e
}

func floatPtr(v float64) *float64 { return &v }

func TestScoreHealthyVitals(t *testing.T) {
	e := newTestEngine(t)

	resp := e.Score(types.RiskScoringRequest{
		DeviceID: "band-03",
		VitalMetrics: map[string]float64{
			"heart_rate":        72,
			"temperature":       36.8,
			"oxygen_saturation": 98,
		},
		TimeWindowHours: 24,
	})

	assert.Equal(t, "band-03", resp.DeviceID)
	assert.Equal(t, types.RiskLow, resp.RiskLevel)
	assert.Less(t, resp.OverallRiskScore, 0.25)
	require.Len(t, resp.RiskFactors, 3)
	assert.Equal(t, []string{"No significant concerns identified - all metrics within normal ranges"}, resp.PrimaryConcerns)
	assert.Equal(t, []string{"Continue routine monitoring - risk level is low"}, resp.RecommendedActions)
	assert.Equal(t, string(models.RiskScoringV1), resp.ModelVersion)
}

func TestScoreCriticalVitals(t *testing.T) {
	e := newTestEngine(t)

	resp := e.Score(types.RiskScoringRequest{
		DeviceID: "band-03",
		VitalMetrics: map[string]float64{
			"heart_rate":        165,
			"temperature":       40.0,
			"oxygen_saturation": 88,
		},
		AnomalyFlags:    []string{"heart_rate_abnormal", "temperature_abnormal"},
		TimeWindowHours: 24,
	})

	assert.Equal(t, types.RiskCritical, resp.RiskLevel)
	assert.GreaterOrEqual(t, resp.OverallRiskScore, 0.75)
	assert.NotEmpty(t, resp.PrimaryConcerns)
	assert.Contains(t, resp.RecommendedActions[0], "IMMEDIATE ACTION REQUIRED")
}

func TestRiskLevelMapping(t *testing.T) {
	e := newTestEngine(t)

	// The level mapping shifts each band up one tier relative to the
	// threshold names.
	tests := []struct {
		score float64
		want  types.RiskLevel
	}{
		{0.9, types.RiskCritical},
		{0.75, types.RiskCritical},
		{0.6, types.RiskHigh},
		{0.5, types.RiskHigh},
		{0.3, types.RiskModerate},
		{0.25, types.RiskModerate},
		{0.1, types.RiskLow},
		{0.0, types.RiskLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, e.riskLevel(tt.score), "score %.2f", tt.score)
	}
}

func TestScoreHeartRateLadder(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		value float64
		trend []float64
		want  float64
	}{
		{name: "normal", value: 72, want: 0.1},
		{name: "slightly low", value: 55, want: 0.3},
		{name: "mildly elevated", value: 110, want: 0.3},
		{name: "warning high", value: 125, want: 0.5},
		{name: "critical high", value: 155, want: 0.8},
		{name: "critical low", value: 35, want: 0.8},
		{name: "rising trend adds 0.2", value: 72, trend: []float64{60, 70, 80}, want: 0.3},
		{name: "falling trend adds 0.15", value: 72, trend: []float64{90, 80, 70}, want: 0.25},
		{name: "critical with rising trend caps at 1", value: 155, trend: []float64{120, 140, 160}, want: 1.0},
		{name: "short trend ignored", value: 72, trend: []float64{60, 80}, want: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.scoreHeartRate(tt.value, tt.trend), 1e-12)
		})
	}
}

func TestScoreTemperatureLadder(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name  string
		value float64
		trend []float64
		want  float64
	}{
		{name: "normal", value: 36.8, want: 0.1},
		{name: "slightly elevated", value: 37.5, want: 0.3},
		{name: "warning", value: 38.5, want: 0.5},
		{name: "critical", value: 40.0, want: 0.8},
		{name: "rising trend adds 0.2", value: 36.8, trend: []float64{36.0, 36.4, 36.8}, want: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.scoreTemperature(tt.value, tt.trend), 1e-12)
		})
	}
}

func TestScoreOxygenSaturationLadder(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		value float64
		want  float64
	}{
		{98, 0.1},
		{94, 0.4},
		{92, 0.7},
		{88, 1.0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, e.scoreOxygenSaturation(tt.value), "spo2 %g", tt.value)
	}
}

func TestVitalKeyAliases(t *testing.T) {
	e := newTestEngine(t)

	resp := e.Score(types.RiskScoringRequest{
		DeviceID: "band-03",
		VitalMetrics: map[string]float64{
			"temperature_celsius": 36.8,
			"spo2":                98,
		},
		TimeWindowHours: 24,
	})

	require.Len(t, resp.RiskFactors, 2)
	names := []string{resp.RiskFactors[0].FactorName, resp.RiskFactors[1].FactorName}
	assert.Contains(t, names, "Temperature Assessment")
	assert.Contains(t, names, "Oxygen Saturation Assessment")
}

func TestAnomalyFlagScoring(t *testing.T) {
	e := newTestEngine(t)

	factors := e.analyzeAnomalyFlags([]string{"device_tamper", "motion_anomaly"})
	require.Len(t, factors, 2)

	critical := factors[0]
	assert.Equal(t, "Anomaly: Device Tamper", critical.FactorName)
	assert.Equal(t, 0.8, critical.FactorScore)
	assert.Equal(t, 0.3, critical.Weight)

	moderate := factors[1]
	assert.Equal(t, 0.5, moderate.FactorScore)
	assert.Equal(t, 0.2, moderate.Weight)
}

func TestSignalQualityFactor(t *testing.T) {
	e := newTestEngine(t)

	f := e.analyzeSignalQuality(0.3)
	assert.InDelta(t, 0.7, f.FactorScore, 1e-12)
	assert.Equal(t, 0.1, f.Weight)
	assert.Contains(t, f.Description, "poor")

	f = e.analyzeSignalQuality(0.9)
	assert.InDelta(t, 0.1, f.FactorScore, 1e-12)
	assert.Contains(t, f.Description, "excellent")
}

func TestTrendFactors(t *testing.T) {
	e := newTestEngine(t)

	// Flat and too-short series are skipped; only heart_rate qualifies.
	factors := e.analyzeTrends(map[string][]float64{
		"heart_rate":  {70, 75, 80},
		"temperature": {36.8, 36.8, 36.8},
		"spo2":        {98, 97},
	})

	require.Len(t, factors, 1)
	assert.Equal(t, "Trend Analysis: Heart Rate", factors[0].FactorName)
	assert.Equal(t, 1.0, factors[0].FactorScore) // min(1, 5*2)
	assert.Equal(t, 0.15, factors[0].Weight)
	assert.Contains(t, factors[0].Description, "increasing")
}

func TestTrendFactorsAreSorted(t *testing.T) {
	e := newTestEngine(t)

	trends := map[string][]float64{
		"zeta":  {1, 2, 3},
		"alpha": {1, 2, 3},
		"mu":    {1, 2, 3},
	}

	for i := 0; i < 10; i++ {
		factors := e.analyzeTrends(trends)
		require.Len(t, factors, 3)
		assert.Equal(t, "Trend Analysis: Alpha", factors[0].FactorName)
		assert.Equal(t, "Trend Analysis: Mu", factors[1].FactorName)
		assert.Equal(t, "Trend Analysis: Zeta", factors[2].FactorName)
	}
}

func TestOverallRiskScoreWeightedMean(t *testing.T) {
	factors := []types.RiskFactor{
		{FactorScore: 0.8, Weight: 0.4},
		{FactorScore: 0.2, Weight: 0.6},
	}
	// (0.8*0.4 + 0.2*0.6) / 1.0 = 0.44
	assert.InDelta(t, 0.44, overallRiskScore(factors), 1e-12)

	assert.Equal(t, 0.0, overallRiskScore(nil))
	assert.Equal(t, 0.0, overallRiskScore([]types.RiskFactor{{FactorScore: 1, Weight: 0}}))
}

func TestConfidenceAccumulates(t *testing.T) {
	e := newTestEngine(t)

	base := types.RiskScoringRequest{
		VitalMetrics:    map[string]float64{"heart_rate": 72},
		TimeWindowHours: 24,
	}
	assert.InDelta(t, 0.5, e.confidence(nil, base), 1e-12)

	full := types.RiskScoringRequest{
		VitalMetrics:       map[string]float64{"heart_rate": 72},
		HistoricalTrends:   map[string][]float64{"heart_rate": {70, 71, 72}},
		SignalQualityScore: floatPtr(0.9),
		AnomalyFlags:       []string{"motion_anomaly"},
		TimeWindowHours:    24,
	}
	factors := make([]types.RiskFactor, 3)
	assert.InDelta(t, 1.0, e.confidence(factors, full), 1e-12)
}

func TestValidUntilCappedAtOneHour(t *testing.T) {
	e := newTestEngine(t)

	for _, hours := range []int{1, 24, 168} {
		resp := e.Score(types.RiskScoringRequest{
			DeviceID:        "band-03",
			VitalMetrics:    map[string]float64{"heart_rate": 72},
			TimeWindowHours: hours,
		})
		assert.Equal(t, time.Hour, resp.ValidUntil.Sub(resp.AssessedAt), "window %dh", hours)
	}
}

func TestPrimaryConcernsTopThree(t *testing.T) {
	factors := []types.RiskFactor{
		{Description: "a", FactorScore: 0.9, Weight: 0.4},
		{Description: "b", FactorScore: 0.8, Weight: 0.3},
		{Description: "c", FactorScore: 0.7, Weight: 0.2},
		{Description: "d", FactorScore: 0.6, Weight: 0.1},
	}

	concerns := primaryConcerns(factors)
	assert.Equal(t, []string{"a", "b", "c"}, concerns)
}

func TestRecommendedActionsIncludeFactorAdvisories(t *testing.T) {
	factors := []types.RiskFactor{
		{FactorName: "Heart Rate Assessment", FactorScore: 0.8, Description: "Tachycardia: 130 bpm"},
	}

	actions := recommendedActions(types.RiskHigh, factors)
	require.GreaterOrEqual(t, len(actions), 3)
	assert.Contains(t, actions[0], "Close monitoring")
	assert.Contains(t, actions[2], "Monitor heart rate trends closely")
}

func TestScoreResponseBounds(t *testing.T) {
	e := newTestEngine(t)

	resp := e.Score(types.RiskScoringRequest{
		DeviceID: "band-03",
		VitalMetrics: map[string]float64{
			"heart_rate":        200,
			"temperature":       41,
			"oxygen_saturation": 70,
		},
		AnomalyFlags:       []string{"heart_rate_abnormal", "temperature_abnormal", "device_tamper"},
		SignalQualityScore: floatPtr(0.0),
		HistoricalTrends:   map[string][]float64{"heart_rate": {150, 175, 200}},
		TimeWindowHours:    1,
	})

	assert.GreaterOrEqual(t, resp.OverallRiskScore, 0.0)
	assert.LessOrEqual(t, resp.OverallRiskScore, 1.0)
	assert.GreaterOrEqual(t, resp.Confidence, 0.0)
	assert.LessOrEqual(t, resp.Confidence, 1.0)
	assert.Equal(t, types.RiskCritical, resp.RiskLevel)
}
