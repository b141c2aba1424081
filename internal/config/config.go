package config

import (
	"os"
	"strconv"
	"strings"

	"ednastats/internal/errors"
)

// Config represents the complete pipeline configuration
type Config struct {
	Paths    PathConfig
	Groups   GroupConfig
	Analysis AnalysisConfig
	Archive  ArchiveConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	WorkDir       string
	TaxaFile      string
	SurveyFile    string
	ConfusionFile string
	OutDir        string
}

// GroupConfig maps sample-name prefixes to group labels.
// The pipeline refuses samples that match no configured prefix.
type GroupConfig struct {
	Prefixes map[string]string
}

// AnalysisConfig holds the statistical tuning knobs
type AnalysisConfig struct {
	Seed           int64
	Permutations   int
	BootstrapIters int
	NMDSTries      int
	NMDSMaxStress  float64
	CountScale     float64
	Alpha          float64
	FitWorkers     int
}

// ArchiveConfig holds the optional run-archive settings
type ArchiveConfig struct {
	DatabaseURL string
	Enabled     bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Paths: PathConfig{
			WorkDir:       getEnvOrDefault("WORKDIR", "."),
			TaxaFile:      getEnvOrDefault("TAXA_FILE", ""),
			SurveyFile:    getEnvOrDefault("SURVEY_FILE", ""),
			ConfusionFile: getEnvOrDefault("CONFUSION_FILE", ""),
			OutDir:        getEnvOrDefault("OUT_DIR", "results"),
		},
		Analysis: AnalysisConfig{
			Seed:           getEnvInt64OrDefault("SEED", 42),
			Permutations:   getEnvIntOrDefault("PERMUTATIONS", 999),
			BootstrapIters: getEnvIntOrDefault("BOOTSTRAP_ITERS", 2000),
			NMDSTries:      getEnvIntOrDefault("NMDS_TRIES", 20),
			NMDSMaxStress:  getEnvFloatOrDefault("NMDS_MAX_STRESS", 0.20),
			CountScale:     getEnvFloatOrDefault("COUNT_SCALE", 1e6),
			Alpha:          getEnvFloatOrDefault("SIGNIFICANCE_ALPHA", 0.05),
			FitWorkers:     getEnvIntOrDefault("FIT_WORKERS", 4),
		},
	}

	groups, err := parseGroupPrefixes(getEnvOrDefault("GROUP_PREFIXES", "CFA=Farm,CFC=Control"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse GROUP_PREFIXES")
	}
	config.Groups = GroupConfig{Prefixes: groups}

	dbURL := os.Getenv("DATABASE_URL")
	config.Archive = ArchiveConfig{DatabaseURL: dbURL, Enabled: dbURL != ""}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// parseGroupPrefixes parses "PREFIX=Label,PREFIX=Label" pairs
func parseGroupPrefixes(raw string) (map[string]string, error) {
	prefixes := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.ConfigInvalid("group prefix entry must be PREFIX=Label, got " + pair)
		}
		prefixes[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	if len(prefixes) == 0 {
		return nil, errors.ConfigInvalid("at least one group prefix is required")
	}
	return prefixes, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.Permutations < 1 {
		return errors.ConfigInvalid("PERMUTATIONS must be positive")
	}
	if config.Analysis.BootstrapIters < 1 {
		return errors.ConfigInvalid("BOOTSTRAP_ITERS must be positive")
	}
	if config.Analysis.NMDSTries < 1 {
		return errors.ConfigInvalid("NMDS_TRIES must be positive")
	}
	if config.Analysis.CountScale <= 0 {
		return errors.ConfigInvalid("COUNT_SCALE must be positive")
	}
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("SIGNIFICANCE_ALPHA must be in (0,1)")
	}
	if config.Analysis.FitWorkers < 1 {
		return errors.ConfigInvalid("FIT_WORKERS must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
