package risk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pulsecal/secureband-ai/internal/stats"
	"github.com/pulsecal/secureband-ai/internal/types"
)

// explainHeartRate builds the rationale for a heart-rate factor, naming the
// clinical condition where the value is outside the normal range.
func (e *Engine) explainHeartRate(value float64, trend []float64, score float64) string {
	t := e.thresholds

	var explanation string
	switch {
	case value < t.HeartRateNormalMin:
		explanation = fmt.Sprintf("Bradycardia: %.0f bpm (below normal range %g-%g bpm)",
			value, t.HeartRateNormalMin, t.HeartRateNormalMax)
	case value > t.HeartRateNormalMax:
		explanation = fmt.Sprintf("Tachycardia: %.0f bpm (above normal range %g-%g bpm)",
			value, t.HeartRateNormalMin, t.HeartRateNormalMax)
	case len(trend) >= 3:
		direction := stats.Mean(stats.Diff(trend))
		switch {
		case direction > 5:
			explanation = fmt.Sprintf("Heart rate trending upward: %.0f bpm (trend: +%.1f bpm/min)", value, direction)
		case direction < -5:
			explanation = fmt.Sprintf("Heart rate trending downward: %.0f bpm (trend: %.1f bpm/min)", value, direction)
		default:
			explanation = fmt.Sprintf("Heart rate within normal range: %.0f bpm", value)
		}
	default:
		explanation = fmt.Sprintf("Heart rate within normal range: %.0f bpm", value)
	}

	return fmt.Sprintf("%s (risk score: %.2f)", explanation, score)
}

// explainTemperature builds the rationale for a temperature factor.
func (e *Engine) explainTemperature(value float64, trend []float64, score float64) string {
	t := e.thresholds

	var explanation string
	switch {
	case value < t.TemperatureNormalMin:
		explanation = fmt.Sprintf("Low body temperature: %.2f°C (normal: %g-%g°C, possible hypothermia)",
			value, t.TemperatureNormalMin, t.TemperatureNormalMax)
	case value > t.TemperatureNormalMax:
		explanation = fmt.Sprintf("Elevated body temperature: %.2f°C (normal: %g-%g°C, possible fever)",
			value, t.TemperatureNormalMin, t.TemperatureNormalMax)
	case len(trend) >= 3:
		if direction := stats.Mean(stats.Diff(trend)); direction > 0.2 {
			explanation = fmt.Sprintf("Temperature trending upward: %.2f°C (trend: +%.2f°C/min)", value, direction)
		} else {
			explanation = fmt.Sprintf("Body temperature within normal range: %.2f°C", value)
		}
	default:
		explanation = fmt.Sprintf("Body temperature within normal range: %.2f°C", value)
	}

	return fmt.Sprintf("%s (risk score: %.2f)", explanation, score)
}

// explainOxygenSaturation builds the rationale for an SpO2 factor.
func (e *Engine) explainOxygenSaturation(value, score float64) string {
	t := e.thresholds

	var explanation string
	switch {
	case value < t.OxygenSaturationCriticalMin:
		explanation = fmt.Sprintf("Critical oxygen saturation: %g%% (normal: >%g%%, critical threshold: <%g%%)",
			value, t.OxygenSaturationNormalMin, t.OxygenSaturationCriticalMin)
	case value < t.OxygenSaturationWarningMin:
		explanation = fmt.Sprintf("Low oxygen saturation: %g%% (normal: >%g%%, warning threshold: <%g%%)",
			value, t.OxygenSaturationNormalMin, t.OxygenSaturationWarningMin)
	case value < t.OxygenSaturationNormalMin:
		explanation = fmt.Sprintf("Slightly low oxygen saturation: %g%% (normal: >%g%%)",
			value, t.OxygenSaturationNormalMin)
	default:
		explanation = fmt.Sprintf("Oxygen saturation normal: %g%%", value)
	}

	return fmt.Sprintf("%s (risk score: %.2f)", explanation, score)
}

// qualityBucket grades a signal quality score with the same cut-points the
// quality engine uses.
func (e *Engine) qualityBucket(score float64) string {
	t := e.thresholds
	switch {
	case score >= t.SignalQualityExcellent:
		return "excellent"
	case score >= t.SignalQualityGood:
		return "good"
	case score >= t.SignalQualityUsable:
		return "fair"
	default:
		return "poor"
	}
}

// primaryConcerns picks the three heaviest-weighted factors and keeps those
// with a meaningful score.
func primaryConcerns(factors []types.RiskFactor) []string {
	sorted := make([]types.RiskFactor, len(factors))
	copy(sorted, factors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FactorScore*sorted[i].Weight > sorted[j].FactorScore*sorted[j].Weight
	})

	var concerns []string
	for i, f := range sorted {
		if i >= 3 {
			break
		}
		if f.FactorScore > 0.3 {
			concerns = append(concerns, f.Description)
		}
	}

	if len(concerns) == 0 {
		concerns = append(concerns, "No significant concerns identified - all metrics within normal ranges")
	}

	return concerns
}

// recommendedActions emits a level-dependent opening set of advisories, then
// up to two factor-specific ones for high-scoring heart or temperature
// factors.
func recommendedActions(level types.RiskLevel, factors []types.RiskFactor) []string {
	var actions []string

	switch level {
	case types.RiskCritical:
		actions = append(actions,
			"IMMEDIATE ACTION REQUIRED: Medical evaluation needed immediately",
			"Continuous monitoring recommended until risk level decreases")
	case types.RiskHigh:
		actions = append(actions,
			"Close monitoring recommended for next 2-4 hours",
			"Consider medical consultation if risk factors persist")
	case types.RiskModerate:
		actions = append(actions,
			"Monitor closely for next 1-2 hours",
			"Review device status and signal quality")
	default:
		actions = append(actions, "Continue routine monitoring - risk level is low")
	}

	var highRisk []types.RiskFactor
	for _, f := range factors {
		if f.FactorScore > 0.6 {
			highRisk = append(highRisk, f)
		}
	}
	if len(highRisk) > 2 {
		highRisk = highRisk[:2]
	}
	for _, f := range highRisk {
		name := strings.ToLower(f.FactorName)
		if strings.Contains(name, "heart") {
			actions = append(actions, "Monitor heart rate trends closely - "+f.Description)
		} else if strings.Contains(name, "temperature") {
			actions = append(actions, "Monitor temperature trends closely - "+f.Description)
		}
	}

	return actions
}
