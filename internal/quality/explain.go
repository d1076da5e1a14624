package quality

import (
	"fmt"

	"github.com/pulsecal/secureband-ai/internal/types"
)

// Fixed reference bounds for per-metric advisories. These are intentionally
// separate from the model thresholds: they describe when a sub-metric is worth
// calling out, not when the signal is unusable.
const (
	adviseSNRBelow      = 15.0
	adviseRMSAbove      = 0.1
	advisePeakConfBelow = 0.7
	adviseDriftAbove    = 0.1
	adviseMotionAbove   = 0.3
)

// buildRecommendations converts computed metrics into advisory strings. Pure
// function so phrasing can be tested independently of the numeric pipeline.
// Advisory order follows the fixed check order: SNR, RMS, peak confidence,
// drift, motion, overall.
func buildRecommendations(m types.SignalQualityMetrics, score float64, grade string, usableThreshold float64) []string {
	var recommendations []string

	if m.SNR < adviseSNRBelow {
		recommendations = append(recommendations, fmt.Sprintf(
			"Low signal-to-noise ratio detected (%.1f dB, threshold: 15 dB). Check device positioning and connection quality.",
			m.SNR))
	}

	if m.RMSError > adviseRMSAbove {
		recommendations = append(recommendations, fmt.Sprintf(
			"High RMS error detected (%.3f, threshold: 0.1). Verify sensor contact and calibration.",
			m.RMSError))
	}

	if m.PeakDetectionConfidence < advisePeakConfBelow {
		recommendations = append(recommendations, fmt.Sprintf(
			"Low peak detection confidence (%.2f, threshold: 0.7). Ensure stable device placement.",
			m.PeakDetectionConfidence))
	}

	if m.BaselineDrift > adviseDriftAbove {
		recommendations = append(recommendations, fmt.Sprintf(
			"Significant baseline drift detected (%.3f, threshold: 0.1). Check for environmental interference.",
			m.BaselineDrift))
	}

	if m.MotionArtifactScore > adviseMotionAbove {
		recommendations = append(recommendations, fmt.Sprintf(
			"Motion artifacts detected (score: %.2f, threshold: 0.3). Ensure device is securely fastened.",
			m.MotionArtifactScore))
	}

	if score < usableThreshold {
		recommendations = append(recommendations, fmt.Sprintf(
			"Overall signal quality is below acceptable threshold (%.2f, required: %.2f). Review device status and connection.",
			score, usableThreshold))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"Signal quality is acceptable for analysis (score: %.2f, grade: %s)", score, grade))
	}

	return recommendations
}
