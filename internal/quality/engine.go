// Package quality grades raw sensor sample windows. The engine computes five
// sub-metrics (SNR, RMS error, peak confidence, baseline drift, motion
// artifacts) and combines them into a single quality score using the weights
// of the fixed signal-quality model version.
package quality

import (
	"math"
	"time"

	"github.com/pulsecal/secureband-ai/internal/models"
	"github.com/pulsecal/secureband-ai/internal/stats"
	"github.com/pulsecal/secureband-ai/internal/types"
)

// Engine assesses signal quality using a fixed, versioned model. Construct
// once; safe for concurrent use since configuration is immutable.
type Engine struct {
	version    models.ModelVersion
	thresholds models.AlertThresholds
	params     map[string]float64
}

// NewEngine resolves the current signal-quality model from the registry.
func NewEngine(registry *models.Registry) (*Engine, error) {
	version, err := registry.LatestVersion(models.TypeSignalQuality)
	if err != nil {
		return nil, err
	}
	cfg, err := registry.Config(version)
	if err != nil {
		return nil, err
	}
	return &Engine{
		version:    version,
		thresholds: cfg.Thresholds,
		params:     cfg.Metadata.Parameters,
	}, nil
}

// ModelVersion returns the model version the engine was constructed with.
func (e *Engine) ModelVersion() string { return string(e.version) }

// Assess computes quality metrics for one sample window. Inference only;
// every numeric edge case has a defined fallback, so Assess never fails.
func (e *Engine) Assess(req types.SignalQualityRequest) types.SignalQualityResponse {
	signal := req.SignalData

	metrics := types.SignalQualityMetrics{
		SNR:                     snr(signal),
		RMSError:                rmsError(signal),
		PeakDetectionConfidence: peakConfidence(signal),
		BaselineDrift:           baselineDrift(signal),
		MotionArtifactScore:     motionArtifact(signal, req.SignalType),
	}

	score := e.qualityScore(metrics)
	grade := e.grade(score)

	return types.SignalQualityResponse{
		DeviceID:        req.DeviceID,
		QualityScore:    score,
		QualityGrade:    grade,
		Metrics:         metrics,
		IsUsable:        score >= e.thresholds.SignalQualityUsable,
		Recommendations: buildRecommendations(metrics, score, grade, e.thresholds.SignalQualityUsable),
		ProcessedAt:     time.Now().UTC(),
		ModelVersion:    string(e.version),
	}
}

// snr estimates the signal-to-noise ratio in dB, clamped to [-50, 100]. The
// noise power is the variance of first differences; a zero noise estimate
// falls back to 20 dB.
func snr(signal []float64) float64 {
	power := 0.0
	for _, v := range signal {
		power += v * v
	}
	if len(signal) > 0 {
		power /= float64(len(signal))
	}

	noise := stats.Std(stats.Diff(signal))
	noise *= noise
	if noise > 0 {
		return stats.Clip(10*math.Log10(power/noise), -50, 100)
	}
	return 20.0
}

// rmsError is the coefficient of variation std/mean(|x|), defaulting to 0.1
// for an all-zero signal.
func rmsError(signal []float64) float64 {
	meanAbs := stats.MeanAbs(signal)
	if meanAbs > 0 {
		return stats.Std(signal) / meanAbs
	}
	return 0.1
}

// peakConfidence counts strict local maxima against an expected rate of one
// peak per ten samples, capped at 1.
func peakConfidence(signal []float64) float64 {
	if len(signal) < 3 {
		return 0.5
	}

	peaks := 0
	for i := 1; i < len(signal)-1; i++ {
		if signal[i] > signal[i-1] && signal[i] > signal[i+1] {
			peaks++
		}
	}

	expected := float64(len(signal)) / 10
	if expected > 0 {
		return math.Min(1.0, float64(peaks)/expected)
	}
	return 0.5
}

// baselineDrift is the magnitude of the least-squares slope scaled by series
// length.
func baselineDrift(signal []float64) float64 {
	if len(signal) < 2 {
		return 0.0
	}
	return math.Abs(stats.LinearSlope(signal)) * float64(len(signal))
}

// motionArtifact compares high-frequency energy against a per-sensor-type
// fraction of overall signal spread. A flat signal (zero threshold) falls
// back to 0.5.
func motionArtifact(signal []float64, signalType string) float64 {
	if len(signal) < 3 {
		return 0.5
	}

	highFreq := stats.Std(stats.Diff(signal))

	var k float64
	switch signalType {
	case "ppg":
		k = 0.1
	case "temperature":
		k = 0.05
	default: // imu
		k = 0.2
	}
	threshold := stats.Std(signal) * k

	if threshold > 0 {
		return math.Min(1.0, highFreq/threshold)
	}
	return 0.5
}

// qualityScore normalizes each sub-metric to [0,1] and combines them with the
// configured weights.
func (e *Engine) qualityScore(m types.SignalQualityMetrics) float64 {
	snrNorm := stats.Clip((m.SNR+10)/30, 0, 1)
	rmsNorm := stats.Clip(1.0-m.RMSError/0.1, 0, 1)
	driftNorm := stats.Clip(1.0-m.BaselineDrift/0.1, 0, 1)
	motionNorm := 1.0 - m.MotionArtifactScore

	score := e.params["snr_weight"]*snrNorm +
		e.params["rms_weight"]*rmsNorm +
		e.params["peak_confidence_weight"]*m.PeakDetectionConfidence +
		e.params["baseline_drift_weight"]*driftNorm +
		e.params["motion_artifact_weight"]*motionNorm

	return stats.Clip(score, 0, 1)
}

func (e *Engine) grade(score float64) string {
	switch {
	case score >= e.thresholds.SignalQualityExcellent:
		return "excellent"
	case score >= e.thresholds.SignalQualityGood:
		return "good"
	case score >= e.thresholds.SignalQualityUsable:
		return "fair"
	default:
		return "poor"
	}
}
