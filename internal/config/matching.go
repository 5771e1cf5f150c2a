package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/counselmatch/internal/matcher"
	"github.com/counselmatch/internal/pipeline"
)

// Matching is the tunable matcher and pipeline configuration, loaded from a
// YAML file so threshold changes do not require a rebuild.
type Matching struct {
	FuzzyAcceptThreshold float64 `yaml:"fuzzy_accept_threshold"`
	FuzzyTierThreshold   float64 `yaml:"fuzzy_tier_threshold"`
	MaxCandidates        int     `yaml:"max_candidates"`
	Workers              int     `yaml:"workers"`
	Debug                bool    `yaml:"debug"`
}

// DefaultMatching mirrors the matcher's built-in thresholds with a modest
// worker pool.
func DefaultMatching() Matching {
	mc := matcher.DefaultConfig()
	return Matching{
		FuzzyAcceptThreshold: mc.FuzzyAcceptThreshold,
		FuzzyTierThreshold:   mc.FuzzyTierThreshold,
		MaxCandidates:        mc.MaxCandidates,
		Workers:              4,
	}
}

// LoadMatching reads the matching config file. A missing file yields the
// defaults; a malformed file is an error.
func LoadMatching(path string) (Matching, error) {
	m := DefaultMatching()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, fmt.Errorf("failed to read matching config: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse matching config: %w", err)
	}
	return m, nil
}

// MatcherConfig projects the funnel thresholds.
func (m Matching) MatcherConfig() matcher.Config {
	return matcher.Config{
		FuzzyAcceptThreshold: m.FuzzyAcceptThreshold,
		FuzzyTierThreshold:   m.FuzzyTierThreshold,
		MaxCandidates:        m.MaxCandidates,
	}
}

// PipelineConfig projects the run settings.
func (m Matching) PipelineConfig() pipeline.Config {
	return pipeline.Config{Workers: m.Workers, Debug: m.Debug}
}
