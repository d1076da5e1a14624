package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ThresholdStore reads per-deployment threshold overrides from disk. Override
// files are optional; a model type with no file keeps the built-in defaults.
type ThresholdStore struct {
	dataDir string
}

// NewThresholdStore creates a store rooted at dataDir.
func NewThresholdStore(dataDir string) *ThresholdStore {
	return &ThresholdStore{dataDir: dataDir}
}

// LoadThresholds loads thresholds for a model type. The override file is
// decoded over a copy of the defaults, so partial files override only the
// fields they name.
func (s *ThresholdStore) LoadThresholds(modelType ModelType) (AlertThresholds, error) {
	thresholds := DefaultThresholds()

	filePath := filepath.Join(s.dataDir, fmt.Sprintf("%s.json", modelType))
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return thresholds, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return thresholds, fmt.Errorf("failed to open threshold override file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&thresholds); err != nil {
		return thresholds, fmt.Errorf("failed to decode threshold overrides: %w", err)
	}

	return thresholds, nil
}

// SaveThresholds writes a threshold override file for a model type.
func (s *ThresholdStore) SaveThresholds(modelType ModelType, thresholds AlertThresholds) error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create threshold override directory: %w", err)
	}

	filePath := filepath.Join(s.dataDir, fmt.Sprintf("%s.json", modelType))
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create threshold override file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(thresholds); err != nil {
		return fmt.Errorf("failed to encode threshold overrides: %w", err)
	}

	return nil
}

// NewRegistryFromDir builds a registry whose thresholds are the built-in
// defaults merged with any override files found under dataDir. The registry is
// validated before being returned.
func NewRegistryFromDir(dataDir string) (*Registry, error) {
	store := NewThresholdStore(dataDir)

	thresholds := make(map[ModelType]AlertThresholds, 3)
	for _, t := range []ModelType{TypeSignalQuality, TypeAnomalyDetection, TypeRiskScoring} {
		loaded, err := store.LoadThresholds(t)
		if err != nil {
			return nil, fmt.Errorf("loading thresholds for %s: %w", t, err)
		}
		thresholds[t] = loaded
	}

	r := newRegistryWithThresholds(thresholds)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
