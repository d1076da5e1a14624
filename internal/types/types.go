// Package types defines the request and response contracts for the scoring
// endpoints. Field constraints mirror the boundary validation the handlers
// perform via binding tags; the engines assume validated input.
package types

import "time"

// AnomalyType categorizes a detected anomaly.
type AnomalyType string

const (
	AnomalyHeartRateAbnormal   AnomalyType = "heart_rate_abnormal"
	AnomalyTemperatureAbnormal AnomalyType = "temperature_abnormal"
	AnomalyMotion              AnomalyType = "motion_anomaly"
	AnomalySignalLoss          AnomalyType = "signal_loss"
	AnomalyDeviceTamper        AnomalyType = "device_tamper"
	AnomalyPatternDeviation    AnomalyType = "pattern_deviation"
	AnomalyUnknown             AnomalyType = "unknown"
)

// RiskLevel categorizes an overall risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// SignalQualityRequest asks for a quality assessment of one raw sample window.
type SignalQualityRequest struct {
	DeviceID     string         `json:"device_id" binding:"required"`
	SignalData   []float64      `json:"signal_data" binding:"required,min=10,max=10000"`
	SamplingRate float64        `json:"sampling_rate" binding:"required,gt=0,lte=1000"`
	SignalType   string         `json:"signal_type" binding:"required,oneof=ppg temperature imu"`
	RecordedAt   time.Time      `json:"recorded_at" binding:"required"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// SignalQualityMetrics carries the five quality sub-metrics. All five are
// always computed together.
type SignalQualityMetrics struct {
	SNR                     float64 `json:"snr"`
	RMSError                float64 `json:"rms_error"`
	PeakDetectionConfidence float64 `json:"peak_detection_confidence"`
	BaselineDrift           float64 `json:"baseline_drift"`
	MotionArtifactScore     float64 `json:"motion_artifact_score"`
}

// SignalQualityResponse is the result of a quality assessment.
type SignalQualityResponse struct {
	DeviceID        string               `json:"device_id"`
	QualityScore    float64              `json:"quality_score"`
	QualityGrade    string               `json:"quality_grade"`
	Metrics         SignalQualityMetrics `json:"metrics"`
	IsUsable        bool                 `json:"is_usable"`
	Recommendations []string             `json:"recommendations"`
	ProcessedAt     time.Time            `json:"processed_at"`
	ModelVersion    string               `json:"model_version"`
}

// BaselineStat holds precomputed baseline statistics for one metric.
type BaselineStat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// AnomalyDetectionRequest asks for anomaly detection over named time series.
// Timestamps are shared by all series and must cover the longest one.
type AnomalyDetectionRequest struct {
	DeviceID       string                  `json:"device_id" binding:"required"`
	SubjectID      string                  `json:"subject_id,omitempty"`
	TimeSeriesData map[string][]float64    `json:"time_series_data" binding:"required,min=1"`
	Timestamps     []time.Time             `json:"timestamps" binding:"required,min=1"`
	BaselineStats  map[string]BaselineStat `json:"baseline_stats,omitempty"`
	Metadata       map[string]any          `json:"metadata,omitempty"`
}

// AnomalyResult is one detected anomaly. Created transiently per detection
// event; never persisted by this service.
type AnomalyResult struct {
	AnomalyType     AnomalyType    `json:"anomaly_type"`
	Severity        float64        `json:"severity"`
	Confidence      float64        `json:"confidence"`
	Description     string         `json:"description"`
	DetectedAt      time.Time      `json:"detected_at"`
	AffectedMetrics []string       `json:"affected_metrics"`
	Context         map[string]any `json:"context,omitempty"`
}

// AnomalyDetectionResponse is the result of one detection pass.
type AnomalyDetectionResponse struct {
	DeviceID          string          `json:"device_id"`
	AnomaliesDetected bool            `json:"anomalies_detected"`
	AnomalyCount      int             `json:"anomaly_count"`
	Anomalies         []AnomalyResult `json:"anomalies"`
	OverallRiskScore  float64         `json:"overall_risk_score"`
	ProcessedAt       time.Time       `json:"processed_at"`
	ModelVersion      string          `json:"model_version"`
}

// RiskScoringRequest asks for a weighted risk assessment.
type RiskScoringRequest struct {
	DeviceID           string               `json:"device_id" binding:"required"`
	SubjectID          string               `json:"subject_id,omitempty"`
	VitalMetrics       map[string]float64   `json:"vital_metrics" binding:"required,min=1"`
	HistoricalTrends   map[string][]float64 `json:"historical_trends,omitempty"`
	AnomalyFlags       []string             `json:"anomaly_flags,omitempty"`
	SignalQualityScore *float64             `json:"signal_quality_score,omitempty" binding:"omitempty,gte=0,lte=1"`
	TimeWindowHours    int                  `json:"time_window_hours" binding:"required,gt=0,lte=168"`
	Metadata           map[string]any       `json:"metadata,omitempty"`
}

// RiskFactor is one scored, weighted contributor to the overall risk
// assessment, carrying its own rationale.
type RiskFactor struct {
	FactorName  string         `json:"factor_name"`
	FactorScore float64        `json:"factor_score"`
	Weight      float64        `json:"weight"`
	Description string         `json:"description"`
	Evidence    map[string]any `json:"evidence,omitempty"`
}

// RiskScoringResponse is the result of one risk assessment.
type RiskScoringResponse struct {
	DeviceID           string       `json:"device_id"`
	OverallRiskScore   float64      `json:"overall_risk_score"`
	RiskLevel          RiskLevel    `json:"risk_level"`
	RiskFactors        []RiskFactor `json:"risk_factors"`
	PrimaryConcerns    []string     `json:"primary_concerns"`
	RecommendedActions []string     `json:"recommended_actions"`
	Confidence         float64      `json:"confidence"`
	AssessedAt         time.Time    `json:"assessed_at"`
	ValidUntil         time.Time    `json:"valid_until"`
	ModelVersion       string       `json:"model_version"`
}
