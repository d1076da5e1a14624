package models

// AlertThresholds is the fixed bundle of numeric boundaries shared by all
// scoring engines. One instance per ModelConfig, copied by value and never
// mutated after construction.
type AlertThresholds struct {
	// Heart rate (bpm)
	HeartRateNormalMin   float64 `json:"heart_rate_normal_min"`
	HeartRateNormalMax   float64 `json:"heart_rate_normal_max"`
	HeartRateWarningMin  float64 `json:"heart_rate_warning_min"`
	HeartRateWarningMax  float64 `json:"heart_rate_warning_max"`
	HeartRateCriticalMin float64 `json:"heart_rate_critical_min"`
	HeartRateCriticalMax float64 `json:"heart_rate_critical_max"`

	// Temperature (degrees Celsius)
	TemperatureNormalMin   float64 `json:"temperature_normal_min"`
	TemperatureNormalMax   float64 `json:"temperature_normal_max"`
	TemperatureWarningMin  float64 `json:"temperature_warning_min"`
	TemperatureWarningMax  float64 `json:"temperature_warning_max"`
	TemperatureCriticalMin float64 `json:"temperature_critical_min"`
	TemperatureCriticalMax float64 `json:"temperature_critical_max"`

	// Oxygen saturation (%)
	OxygenSaturationNormalMin   float64 `json:"oxygen_saturation_normal_min"`
	OxygenSaturationWarningMin  float64 `json:"oxygen_saturation_warning_min"`
	OxygenSaturationCriticalMin float64 `json:"oxygen_saturation_critical_min"`

	// Blood pressure, systolic (mmHg)
	BloodPressureSystolicNormalMax   float64 `json:"blood_pressure_systolic_normal_max"`
	BloodPressureSystolicWarningMax  float64 `json:"blood_pressure_systolic_warning_max"`
	BloodPressureSystolicCriticalMax float64 `json:"blood_pressure_systolic_critical_max"`
	BloodPressureSystolicNormalMin   float64 `json:"blood_pressure_systolic_normal_min"`
	BloodPressureSystolicWarningMin  float64 `json:"blood_pressure_systolic_warning_min"`
	BloodPressureSystolicCriticalMin float64 `json:"blood_pressure_systolic_critical_min"`

	// Device battery (%)
	BatteryWarning  float64 `json:"battery_warning"`
	BatteryCritical float64 `json:"battery_critical"`

	// Radio signal strength (dBm)
	SignalStrengthWarning  float64 `json:"signal_strength_warning"`
	SignalStrengthCritical float64 `json:"signal_strength_critical"`

	// Anomaly detection
	ZScoreThreshold      float64 `json:"z_score_threshold"`
	TrendChangeThreshold float64 `json:"trend_change_threshold"`

	// Risk score bands
	RiskScoreLow      float64 `json:"risk_score_low"`
	RiskScoreModerate float64 `json:"risk_score_moderate"`
	RiskScoreHigh     float64 `json:"risk_score_high"`

	// Confidence floors
	MinConfidenceForAlert   float64 `json:"min_confidence_for_alert"`
	HighConfidenceThreshold float64 `json:"high_confidence_threshold"`

	// Signal quality grading cut-points
	SignalQualityGood      float64 `json:"signal_quality_good"`
	SignalQualityExcellent float64 `json:"signal_quality_excellent"`
	SignalQualityUsable    float64 `json:"signal_quality_usable"`
}

// DefaultThresholds returns the reference threshold configuration.
func DefaultThresholds() AlertThresholds {
	return AlertThresholds{
		HeartRateNormalMin:   60.0,
		HeartRateNormalMax:   100.0,
		HeartRateWarningMin:  50.0,
		HeartRateWarningMax:  120.0,
		HeartRateCriticalMin: 40.0,
		HeartRateCriticalMax: 150.0,

		TemperatureNormalMin:   36.1,
		TemperatureNormalMax:   37.2,
		TemperatureWarningMin:  35.5,
		TemperatureWarningMax:  38.0,
		TemperatureCriticalMin: 34.0,
		TemperatureCriticalMax: 39.5,

		OxygenSaturationNormalMin:   95.0,
		OxygenSaturationWarningMin:  93.0,
		OxygenSaturationCriticalMin: 90.0,

		BloodPressureSystolicNormalMax:   140.0,
		BloodPressureSystolicWarningMax:  160.0,
		BloodPressureSystolicCriticalMax: 180.0,
		BloodPressureSystolicNormalMin:   90.0,
		BloodPressureSystolicWarningMin:  80.0,
		BloodPressureSystolicCriticalMin: 70.0,

		BatteryWarning:  20.0,
		BatteryCritical: 10.0,

		SignalStrengthWarning:  -90.0,
		SignalStrengthCritical: -100.0,

		ZScoreThreshold:      3.0,
		TrendChangeThreshold: 0.2,

		RiskScoreLow:      0.25,
		RiskScoreModerate: 0.5,
		RiskScoreHigh:     0.75,

		MinConfidenceForAlert:   0.6,
		HighConfidenceThreshold: 0.8,

		SignalQualityGood:      0.6,
		SignalQualityExcellent: 0.8,
		SignalQualityUsable:    0.5,
	}
}
