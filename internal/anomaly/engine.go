// Package anomaly scans named time series for statistical outliers, trend
// breaks, and cross-metric co-occurrence patterns. Detection is z-score based
// against either caller-supplied baselines or the series itself, gated by a
// minimum-confidence floor.
package anomaly

import (
	"math"
	"sort"
	"time"

	"github.com/pulsecal/secureband-ai/internal/models"
	"github.com/pulsecal/secureband-ai/internal/stats"
	"github.com/pulsecal/secureband-ai/internal/types"
)

// Engine detects anomalies using a fixed, versioned model. Construct once;
// safe for concurrent use since configuration is immutable.
type Engine struct {
	version    models.ModelVersion
	thresholds models.AlertThresholds
}

// NewEngine resolves the current anomaly-detection model from the registry.
func NewEngine(registry *models.Registry) (*Engine, error) {
	version, err := registry.LatestVersion(models.TypeAnomalyDetection)
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
	}, nil
}

// ModelVersion returns the model version the engine was constructed with.
func (e *Engine) ModelVersion() string { return string(e.version) }

// Detect runs all detectors over the request's series. Metric names are
// visited in sorted order so identical inputs produce identical output.
// Output order per metric: statistical outliers, then trend anomalies; all
// cross-metric findings last.
func (e *Engine) Detect(req types.AnomalyDetectionRequest) types.AnomalyDetectionResponse {
	var anomalies []types.AnomalyResult

	metricNames := make([]string, 0, len(req.TimeSeriesData))
	for name := range req.TimeSeriesData {
		metricNames = append(metricNames, name)
	}
	sort.Strings(metricNames)

	for _, name := range metricNames {
		anomalies = append(anomalies, e.detectMetricAnomalies(
			name, req.TimeSeriesData[name], req.Timestamps, req.BaselineStats)...)
	}

	anomalies = append(anomalies, e.detectCrossMetricAnomalies(
		req.TimeSeriesData, req.Timestamps)...)

	return types.AnomalyDetectionResponse{
		DeviceID:          req.DeviceID,
		AnomaliesDetected: len(anomalies) > 0,
		AnomalyCount:      len(anomalies),
		Anomalies:         anomalies,
		OverallRiskScore:  overallRisk(anomalies),
		ProcessedAt:       time.Now().UTC(),
		ModelVersion:      string(e.version),
	}
}

// detectMetricAnomalies finds z-score outliers in one series, then trend
// breaks when the series is long enough. Series shorter than three points are
// skipped entirely.
func (e *Engine) detectMetricAnomalies(
	metricName string,
	values []float64,
	timestamps []time.Time,
	baselines map[string]types.BaselineStat,
) []types.AnomalyResult {
	var anomalies []types.AnomalyResult

	if len(values) < 3 {
		return anomalies
	}

	var baselineMean, baselineStd float64
	if stat, ok := baselines[metricName]; ok {
		baselineMean = stat.Mean
		baselineStd = stat.Std
	} else {
		baselineMean = stats.Mean(values)
		baselineStd = stats.Std(values)
	}

	zThreshold := e.thresholds.ZScoreThreshold

	for idx, value := range values {
		var z float64
		if baselineStd > 0 {
			z = math.Abs(value-baselineMean) / baselineStd
		}
		if z <= zThreshold {
			continue
		}

		severity := math.Min(1.0, z/(zThreshold*2))

		// Larger deviations carry higher confidence.
		confidence := math.Min(1.0, 0.7+(z-zThreshold)*0.1)
		if confidence < e.thresholds.MinConfidenceForAlert {
			continue
		}

		description := explainOutlier(metricName, value, baselineMean, baselineStd, z, zThreshold)

		anomalies = append(anomalies, types.AnomalyResult{
			AnomalyType:     classifyMetric(metricName),
			Severity:        severity,
			Confidence:      confidence,
			Description:     description,
			DetectedAt:      timestampAt(timestamps, idx),
			AffectedMetrics: []string{metricName},
			Context: map[string]any{
				"baseline_mean":     baselineMean,
				"baseline_std":      baselineStd,
				"detected_value":    value,
				"z_score":           z,
				"z_score_threshold": zThreshold,
				"model_version":     string(e.version),
				"explanation":       description,
			},
		})
	}

	if len(values) >= 5 {
		anomalies = append(anomalies, e.detectTrendAnomalies(
			metricName, values, timestamps, baselineMean)...)
	}

	return anomalies
}

// detectTrendAnomalies flags sudden jumps between consecutive moving-average
// windows relative to the baseline mean.
func (e *Engine) detectTrendAnomalies(
	metricName string,
	values []float64,
	timestamps []time.Time,
	baselineMean float64,
) []types.AnomalyResult {
	var anomalies []types.AnomalyResult

	if len(values) < 5 {
		return anomalies
	}

	trendThreshold := e.thresholds.TrendChangeThreshold

	windowSize := min(3, len(values)/2)
	rollingMean := stats.MovingAverage(values, windowSize)

	for i := 1; i < len(rollingMean); i++ {
		change := math.Abs(rollingMean[i] - rollingMean[i-1])
		threshold := math.Abs(baselineMean) * trendThreshold

		if change <= threshold {
			continue
		}

		severity := math.Min(1.0, change/(math.Abs(baselineMean)*0.5))
		confidence := math.Min(1.0, 0.75+(change/threshold-1)*0.1)
		if confidence < e.thresholds.MinConfidenceForAlert {
			continue
		}

		description := explainTrendBreak(metricName, change, threshold, baselineMean)

		anomalies = append(anomalies, types.AnomalyResult{
			AnomalyType:     types.AnomalyPatternDeviation,
			Severity:        severity,
			Confidence:      confidence,
			Description:     description,
			DetectedAt:      timestampAt(timestamps, i+windowSize-1),
			AffectedMetrics: []string{metricName},
			Context: map[string]any{
				"change_magnitude": change,
				"baseline_mean":    baselineMean,
				"threshold":        threshold,
				"model_version":    string(e.version),
				"explanation":      description,
			},
		})
	}

	return anomalies
}

// detectCrossMetricAnomalies flags index-aligned simultaneous spikes in heart
// rate and temperature. The check requires equal-length series; mismatched
// lengths make it degrade silently rather than fail.
func (e *Engine) detectCrossMetricAnomalies(
	series map[string][]float64,
	timestamps []time.Time,
) []types.AnomalyResult {
	var anomalies []types.AnomalyResult

	hrValues, hasHR := series["heart_rate"]
	tempValues, hasTemp := series["temperature"]
	if !hasHR || !hasTemp {
		return anomalies
	}
	if len(hrValues) != len(tempValues) || len(hrValues) == 0 {
		return anomalies
	}

	hrMean := stats.Mean(hrValues)
	tempMean := stats.Mean(tempValues)
	hrStd := stats.Std(hrValues)
	tempStd := stats.Std(tempValues)

	hrThreshold := hrMean * 1.2
	tempThreshold := tempMean * 1.1

	for i := range hrValues {
		if hrValues[i] <= hrThreshold || tempValues[i] <= tempThreshold {
			continue
		}

		description := explainCoElevation(hrValues[i], hrMean, hrStd, tempValues[i], tempMean, tempStd)

		anomalies = append(anomalies, types.AnomalyResult{
			AnomalyType:     types.AnomalyPatternDeviation,
			Severity:        0.7,
			Confidence:      0.8, // cross-metric co-occurrence is strong evidence
			Description:     description,
			DetectedAt:      timestampAt(timestamps, i),
			AffectedMetrics: []string{"heart_rate", "temperature"},
			Context: map[string]any{
				"heart_rate_value":      hrValues[i],
				"temperature_value":     tempValues[i],
				"heart_rate_threshold":  hrThreshold,
				"temperature_threshold": tempThreshold,
				"model_version":         string(e.version),
				"explanation":           description,
			},
		})
	}

	return anomalies
}

// overallRisk is the confidence-weighted mean of anomaly severities.
func overallRisk(anomalies []types.AnomalyResult) float64 {
	if len(anomalies) == 0 {
		return 0.0
	}

	var weightedSeverity, totalWeight float64
	for _, a := range anomalies {
		weightedSeverity += a.Severity * a.Confidence
		totalWeight += a.Confidence
	}

	if totalWeight > 0 {
		return math.Min(1.0, weightedSeverity/totalWeight)
	}
	return 0.0
}

// timestampAt returns the timestamp for a detection index. Indices past the
// supplied timestamps fall back to the last one so a short timestamp list
// degrades instead of panicking.
func timestampAt(timestamps []time.Time, idx int) time.Time {
	if len(timestamps) == 0 {
		return time.Time{}
	}
	if idx >= len(timestamps) {
		return timestamps[len(timestamps)-1]
	}
	return timestamps[idx]
}
