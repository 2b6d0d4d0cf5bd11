// Package modelstore loads the trained sequence model, the per-symbol scalers
// and the feature configuration from a model directory.
package modelstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"StockForecast/internal/forecast"
	"StockForecast/internal/scaler"
)

// File names inside a model directory.
const (
	ModelFile   = "model.json"
	ScalersFile = "scalers.json"
	ConfigFile  = "config.json"
)

// Config is the persisted feature configuration the model was trained with.
type Config struct {
	FeatureColumns []string `json:"feature_columns"`
	SequenceLength int      `json:"sequence_length"`
	// Optional symbol decorations stripped before scaler lookup.
	// Unset means the IDX defaults (".JK" suffix, "^" prefix).
	SymbolSuffixes []string `json:"symbol_suffixes,omitempty"`
	SymbolPrefixes []string `json:"symbol_prefixes,omitempty"`
}

// Bundle is everything needed to run forecasts. It is read-only after Load.
type Bundle struct {
	Model   forecast.SequenceModel
	Scalers *scaler.Registry
	Config  Config
}

type modelSpec struct {
	Type string `json:"type"`
	// linear
	Weights    [][]float64 `json:"weights"`
	Bias       float64     `json:"bias"`
	Activation string      `json:"activation"`
	// http (TF Serving)
	Endpoint  string `json:"endpoint"`
	Name      string `json:"name"`
	TimeoutMS int    `json:"timeout_ms"`
}

type scalerEntry struct {
	Symbol  string      `json:"symbol"`
	Feature scaler.Spec `json:"feature"`
	Target  scaler.Spec `json:"target"`
}

// Load reads model.json, scalers.json and config.json from dir. Any failure
// fails the whole load; no partial bundle is returned.
func Load(dir string) (*Bundle, error) {
	var cfg Config
	if err := readJSON(filepath.Join(dir, ConfigFile), &cfg); err != nil {
		return nil, err
	}
	if len(cfg.FeatureColumns) == 0 {
		return nil, errors.New("config: feature_columns is empty")
	}
	if cfg.SequenceLength <= 0 {
		return nil, fmt.Errorf("config: sequence_length must be positive, got %d", cfg.SequenceLength)
	}

	var entries []scalerEntry
	if err := readJSON(filepath.Join(dir, ScalersFile), &entries); err != nil {
		return nil, err
	}
	reg, err := buildRegistry(entries, len(cfg.FeatureColumns))
	if err != nil {
		return nil, fmt.Errorf("scalers: %w", err)
	}
	if cfg.SymbolSuffixes != nil || cfg.SymbolPrefixes != nil {
		reg = reg.WithDecorations(cfg.SymbolSuffixes, cfg.SymbolPrefixes)
	}

	var ms modelSpec
	if err := readJSON(filepath.Join(dir, ModelFile), &ms); err != nil {
		return nil, err
	}
	m, err := buildModel(ms, cfg)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	log.Printf("[INFO] model bundle loaded from %s: %s model, %d scalers, %d features, sequence length %d",
		dir, ms.Type, reg.Len(), len(cfg.FeatureColumns), cfg.SequenceLength)
	return &Bundle{Model: m, Scalers: reg, Config: cfg}, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func buildRegistry(entries []scalerEntry, width int) (*scaler.Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("no scalers defined")
	}
	out := make([]scaler.Entry, 0, len(entries))
	for _, e := range entries {
		feat, err := e.Feature.Build()
		if err != nil {
			return nil, fmt.Errorf("%s feature: %w", e.Symbol, err)
		}
		if feat.Width() != width {
			return nil, fmt.Errorf("%s feature scaler has %d columns, config has %d", e.Symbol, feat.Width(), width)
		}
		target, err := e.Target.Build()
		if err != nil {
			return nil, fmt.Errorf("%s target: %w", e.Symbol, err)
		}
		if target.Width() != 1 {
			return nil, fmt.Errorf("%s target scaler has %d columns, want 1", e.Symbol, target.Width())
		}
		out = append(out, scaler.Entry{Key: e.Symbol, Params: scaler.Params{Feature: feat, Target: target}})
	}
	return scaler.NewRegistry(out)
}

func buildModel(ms modelSpec, cfg Config) (forecast.SequenceModel, error) {
	switch ms.Type {
	case "linear", "":
		m := &LinearModel{Weights: ms.Weights, Bias: ms.Bias, Activation: ms.Activation}
		steps, width := m.shape()
		if steps != cfg.SequenceLength || width != len(cfg.FeatureColumns) {
			return nil, fmt.Errorf("linear weights are %dx%d, want %dx%d",
				steps, width, cfg.SequenceLength, len(cfg.FeatureColumns))
		}
		for i, row := range ms.Weights {
			if len(row) != width {
				return nil, fmt.Errorf("linear weights row %d has %d columns, want %d", i, len(row), width)
			}
		}
		return m, nil
	case "http", "serving":
		if ms.Endpoint == "" || ms.Name == "" {
			return nil, fmt.Errorf("%s model needs endpoint and name", ms.Type)
		}
		return NewServingModel(ms.Endpoint, ms.Name, time.Duration(ms.TimeoutMS)*time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown model type %q", ms.Type)
	}
}
