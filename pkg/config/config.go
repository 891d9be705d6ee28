package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "CLIPHUB_CONFIG"

// Config holds the file-driven settings: which sources to harvest, the
// relevance vocabulary, dedup tuning and ingestion pacing. Secrets and
// machine-local paths come from the environment instead.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest"`
	Sources   []SourceConfig  `yaml:"sources"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Session   SessionConfig   `yaml:"session"`
}

// SourceConfig describes one external source to harvest.
type SourceConfig struct {
	Name    string `yaml:"name"`              // community / feed name
	Kind    string `yaml:"kind"`              // "clipper" or "rss"
	BaseURL string `yaml:"baseUrl,omitempty"` // API base (clipper) or feed URL (rss)
	Trusted bool   `yaml:"trusted"`           // topically pure, skips the relevance filter
	Limit   int    `yaml:"limit,omitempty"`   // items per listing call
}

// IngestConfig controls cycle pacing and retry behavior.
type IngestConfig struct {
	CronExpression  string   `yaml:"cronExpression"`
	PaceSeconds     int      `yaml:"paceSeconds"`     // delay between listing calls and between sources
	MaxAttempts     int      `yaml:"maxAttempts"`     // retry attempts per source call
	SearchTerms     []string `yaml:"searchTerms"`     // extra search listings per source
	RevalidateBatch int      `yaml:"revalidateBatch"` // media recheck batch size per sweep
}

func (c IngestConfig) Pace() time.Duration {
	if c.PaceSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.PaceSeconds) * time.Second
}

// RelevanceConfig is the term vocabulary for the topical filter.
type RelevanceConfig struct {
	Primary         []string `yaml:"primary"`         // topic terms, word-boundary matched
	Secondary       []string `yaml:"secondary"`       // required co-occurrence terms
	GenerationVerbs []string `yaml:"generationVerbs"` // verbs completing a "<topic> generated" pattern
	Excluded        []string `yaml:"excluded"`        // any hit rejects outright
}

// DedupConfig carries the resolver's tuning constants. The weights and
// thresholds are empirically tuned; treat them as knobs, not structure.
type DedupConfig struct {
	WindowHours          int     `yaml:"windowHours"`
	TitleSimilarityMin   float64 `yaml:"titleSimilarityMin"`
	TitleWeight          float64 `yaml:"titleWeight"`
	DurationWeight       float64 `yaml:"durationWeight"`
	DurationToleranceSec float64 `yaml:"durationToleranceSec"`
	AuthorCrossWeight    float64 `yaml:"authorCrossWeight"`
	AuthorSameWeight     float64 `yaml:"authorSameWeight"`
	MediaIDWeight        float64 `yaml:"mediaIdWeight"`
	Threshold            float64 `yaml:"threshold"`
	CrossAuthorThreshold float64 `yaml:"crossAuthorThreshold"`
}

// SessionConfig tunes the per-viewer repeat-avoidance memory.
type SessionConfig struct {
	MaxIDs   int `yaml:"maxIds"`
	TTLHours int `yaml:"ttlHours"`
}

func (c SessionConfig) TTL() time.Duration {
	if c.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.TTLHours) * time.Hour
}

// Default returns the built-in configuration used when no file is given.
func Default() Config {
	return Config{
		Ingest: IngestConfig{
			CronExpression:  "*/30 * * * *",
			PaceSeconds:     2,
			MaxAttempts:     3,
			RevalidateBatch: 50,
		},
		Relevance: RelevanceConfig{
			Primary:         []string{"ai", "artificial intelligence", "stable diffusion", "midjourney", "sora", "runway"},
			Secondary:       []string{"video", "clip", "animation", "timelapse", "render", "footage"},
			GenerationVerbs: []string{"generated", "created", "made", "produced", "rendered"},
			Excluded:        []string{"giveaway", "onlyfans", "crypto"},
		},
		Dedup: DedupConfig{
			WindowHours:          48,
			TitleSimilarityMin:   0.7,
			TitleWeight:          0.4,
			DurationWeight:       0.3,
			DurationToleranceSec: 5,
			AuthorCrossWeight:    0.4,
			AuthorSameWeight:     0.2,
			MediaIDWeight:        0.5,
			Threshold:            0.7,
			CrossAuthorThreshold: 0.6,
		},
		Session: SessionConfig{
			MaxIDs:   300,
			TTLHours: 24,
		},
	}
}

// Load reads the yaml config at path, or at $CLIPHUB_CONFIG, or falls back
// to defaults when neither is set. Sections missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
