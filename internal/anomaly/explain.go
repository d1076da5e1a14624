package anomaly

import (
	"fmt"
	"strings"

	"github.com/pulsecal/secureband-ai/internal/types"
)

// classifyMetric infers the anomaly type from the metric name.
func classifyMetric(metricName string) types.AnomalyType {
	name := strings.ToLower(metricName)
	switch {
	case strings.Contains(name, "heart") || strings.Contains(name, "hr"):
		return types.AnomalyHeartRateAbnormal
	case strings.Contains(name, "temp"):
		return types.AnomalyTemperatureAbnormal
	case strings.Contains(name, "motion") || strings.Contains(name, "imu"):
		return types.AnomalyMotion
	default:
		return types.AnomalyUnknown
	}
}

// explainOutlier builds the human-readable description for a z-score outlier:
// metric, direction against baseline, an adjective scaled to the percent
// deviation, the baseline itself, and the z-score against its threshold.
func explainOutlier(metricName string, value, baselineMean, baselineStd, zScore, zThreshold float64) string {
	deviation := value - baselineMean
	deviationPct := 0.0
	if baselineMean != 0 {
		deviationPct = deviation / baselineMean * 100
	}

	var severityDesc string
	switch {
	case abs(deviationPct) > 50:
		severityDesc = "significant"
	case abs(deviationPct) > 25:
		severityDesc = "moderate"
	default:
		severityDesc = "slight"
	}

	direction := "below"
	if deviation > 0 {
		direction = "above"
	}

	return fmt.Sprintf(
		"%s anomaly detected: value %.2f is %sly %s baseline (baseline: %.2f±%.2f, Z-score: %.2f, threshold: %.1f)",
		titleWords(metricName), value, severityDesc, direction,
		baselineMean, baselineStd, zScore, zThreshold)
}

// explainTrendBreak describes a sudden change between moving-average windows.
func explainTrendBreak(metricName string, change, threshold, baselineMean float64) string {
	return fmt.Sprintf(
		"Sudden change in %s: %.2f (threshold: %.2f, baseline: %.2f)",
		metricName, change, threshold, baselineMean)
}

// explainCoElevation describes a simultaneous heart-rate and temperature
// spike.
func explainCoElevation(hrValue, hrMean, hrStd, tempValue, tempMean, tempStd float64) string {
	return fmt.Sprintf(
		"Simultaneous elevation detected: heart rate %.0f bpm (normal: %.0f±%.0f), temperature %.2f°C (normal: %.2f±%.2f)",
		hrValue, hrMean, hrStd, tempValue, tempMean, tempStd)
}

// titleWords renders snake_case metric names as space-separated title case.
func titleWords(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
