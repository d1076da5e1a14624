package models

import (
	"errors"
	"fmt"
	"sort"
)

// ModelVersion identifies an immutable model release. Inference only - no
// on-device training, so versions change only with a deployment.
type ModelVersion string

const (
	SignalQualityV1    ModelVersion = "signal-quality-v1.0.0"
	AnomalyDetectionV1 ModelVersion = "anomaly-detection-v1.0.0"
	RiskScoringV1      ModelVersion = "risk-scoring-v1.0.0"
)

// ModelType names a model family. Each family has exactly one current version
// in the registry.
type ModelType string

const (
	TypeSignalQuality    ModelType = "signal_quality"
	TypeAnomalyDetection ModelType = "anomaly_detection"
	TypeRiskScoring      ModelType = "risk_scoring"
)

var (
	// ErrVersionNotFound is returned when a requested model version is not
	// registered. Not retryable without a configuration change.
	ErrVersionNotFound = errors.New("model version not found in registry")

	// ErrUnknownModelType is returned for model type strings outside the
	// fixed set of model families.
	ErrUnknownModelType = errors.New("unknown model type")
)

// ModelMetadata describes a model version. Immutable once registered.
type ModelMetadata struct {
	Version       ModelVersion       `json:"version"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	CreatedAt     string             `json:"created_at"`
	Deterministic bool               `json:"deterministic"`
	InferenceOnly bool               `json:"inference_only"`
	Parameters    map[string]float64 `json:"parameters"`
}

// ModelConfig is the complete configuration for one model version.
type ModelConfig struct {
	Version    ModelVersion    `json:"version"`
	Metadata   ModelMetadata   `json:"metadata"`
	Thresholds AlertThresholds `json:"thresholds"`
	RandomSeed int             `json:"random_seed"`
}

// Registry holds the fixed, versioned model configurations. It is populated
// once at startup and read-only afterwards, so lookups are safe for concurrent
// use without locking.
type Registry struct {
	configs map[ModelVersion]ModelConfig
	latest  map[ModelType]ModelVersion
}

// NewRegistry builds the registry with the built-in model configurations.
func NewRegistry() *Registry {
	return newRegistryWithThresholds(map[ModelType]AlertThresholds{
		TypeSignalQuality:    DefaultThresholds(),
		TypeAnomalyDetection: DefaultThresholds(),
		TypeRiskScoring:      DefaultThresholds(),
	})
}

func newRegistryWithThresholds(thresholds map[ModelType]AlertThresholds) *Registry {
	r := &Registry{
		configs: map[ModelVersion]ModelConfig{
			SignalQualityV1: {
				Version: SignalQualityV1,
				Metadata: ModelMetadata{
					Version:       SignalQualityV1,
					Name:          "Signal Quality Assessment Model",
					Description:   "Statistical signal quality assessment using SNR, RMS error, and motion artifact detection",
					CreatedAt:     "2026-01-15",
					Deterministic: true,
					InferenceOnly: true,
					Parameters: map[string]float64{
						"snr_weight":             0.3,
						"rms_weight":             0.2,
						"peak_confidence_weight": 0.2,
						"baseline_drift_weight":  0.15,
						"motion_artifact_weight": 0.15,
					},
				},
				Thresholds: thresholds[TypeSignalQuality],
				RandomSeed: 42,
			},
			AnomalyDetectionV1: {
				Version: AnomalyDetectionV1,
				Metadata: ModelMetadata{
					Version:       AnomalyDetectionV1,
					Name:          "Anomaly Detection Model",
					Description:   "Z-score based anomaly detection with trend analysis",
					CreatedAt:     "2026-01-15",
					Deterministic: true,
					InferenceOnly: true,
					Parameters: map[string]float64{
						"z_score_threshold":      3.0,
						"trend_window_size":      3,
						"trend_change_threshold": 0.2,
					},
				},
				Thresholds: thresholds[TypeAnomalyDetection],
				RandomSeed: 42,
			},
			RiskScoringV1: {
				Version: RiskScoringV1,
				Metadata: ModelMetadata{
					Version:       RiskScoringV1,
					Name:          "Risk Scoring Model",
					Description:   "Weighted risk scoring based on vital metrics, anomalies, and trends",
					CreatedAt:     "2026-01-15",
					Deterministic: true,
					InferenceOnly: true,
					Parameters: map[string]float64{
						"heart_rate_weight":        0.4,
						"temperature_weight":       0.3,
						"oxygen_saturation_weight": 0.3,
						"anomaly_weight":           0.3,
						"signal_quality_weight":    0.1,
					},
				},
				Thresholds: thresholds[TypeRiskScoring],
				RandomSeed: 42,
			},
		},
		latest: map[ModelType]ModelVersion{
			TypeSignalQuality:    SignalQualityV1,
			TypeAnomalyDetection: AnomalyDetectionV1,
			TypeRiskScoring:      RiskScoringV1,
		},
	}
	return r
}

// Validate checks that every model type resolves to a registered version.
// Called at startup so an incomplete registry fails fast rather than at
// request time.
func (r *Registry) Validate() error {
	for _, t := range []ModelType{TypeSignalQuality, TypeAnomalyDetection, TypeRiskScoring} {
		v, ok := r.latest[t]
		if !ok {
			return fmt.Errorf("model type %s has no registered version: %w", t, ErrUnknownModelType)
		}
		if _, ok := r.configs[v]; !ok {
			return fmt.Errorf("model version %s for type %s: %w", v, t, ErrVersionNotFound)
		}
	}
	return nil
}

// Config returns the configuration for a specific model version.
func (r *Registry) Config(version ModelVersion) (ModelConfig, error) {
	cfg, ok := r.configs[version]
	if !ok {
		return ModelConfig{}, fmt.Errorf("model version %s: %w", version, ErrVersionNotFound)
	}
	return cfg, nil
}

// LatestVersion returns the current version for a model type.
func (r *Registry) LatestVersion(modelType ModelType) (ModelVersion, error) {
	v, ok := r.latest[modelType]
	if !ok {
		return "", fmt.Errorf("model type %q: %w", modelType, ErrUnknownModelType)
	}
	return v, nil
}

// Thresholds returns the alert thresholds for a model version.
func (r *Registry) Thresholds(version ModelVersion) (AlertThresholds, error) {
	cfg, err := r.Config(version)
	if err != nil {
		return AlertThresholds{}, err
	}
	return cfg.Thresholds, nil
}

// All returns every registered configuration, ordered by version string.
func (r *Registry) All() []ModelConfig {
	configs := make([]ModelConfig, 0, len(r.configs))
	for _, cfg := range r.configs {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].Version < configs[j].Version
	})
	return configs
}
