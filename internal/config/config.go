package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/charging-station-etl/internal/domain"
	"github.com/couchcryptid/charging-station-etl/internal/merge"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir    string
	OutputFile string

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MergeInterval   time.Duration

	// Merge holds the record-linkage thresholds and source priority.
	Merge merge.Options
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mergeInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("MERGE_INTERVAL", "1h"))
	if err != nil || mergeInterval <= 0 {
		return nil, errors.New("invalid MERGE_INTERVAL")
	}

	kafkaEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false"))
	if err != nil {
		return nil, errors.New("invalid KAFKA_ENABLED")
	}

	opts, err := LoadMergeOptions()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		OutputFile:      outputFile(),
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "canonical-charging-stations"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MergeInterval:   mergeInterval,
		Merge:           opts,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if !cfg.KafkaEnabled && cfg.OutputFile == "" {
		return nil, errors.New("no sink configured: set OUTPUT_FILE or KAFKA_ENABLED")
	}

	return cfg, nil
}

// outputFile returns OUTPUT_FILE, where an explicitly empty value disables
// the file sink.
func outputFile() string {
	if v, ok := os.LookupEnv("OUTPUT_FILE"); ok {
		return strings.TrimSpace(v)
	}
	return "data/stations__merged.json"
}

// LoadMergeOptions reads only the merge thresholds and source priority, for
// tools that do not run the service.
func LoadMergeOptions() (merge.Options, error) {
	opts := merge.DefaultOptions()

	floats := []struct {
		env    string
		target *float64
	}{
		{"MATCH_RADIUS_METERS", &opts.MatchRadiusMeters},
		{"NAME_SIMILARITY_FLOOR", &opts.NameFloor},
		{"OPERATOR_SIMILARITY_FLOOR", &opts.OperatorFloor},
		{"ADDRESS_SIMILARITY_FLOOR", &opts.AddressFloor},
	}
	for _, f := range floats {
		s := sharedcfg.EnvOrDefault(f.env, "")
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return merge.Options{}, fmt.Errorf("invalid %s: %w", f.env, err)
		}
		*f.target = v
	}

	if s := sharedcfg.EnvOrDefault("SOURCE_PRIORITY", ""); s != "" {
		opts.SourcePriority = parseSourcePriority(s)
	}

	if err := opts.Validate(); err != nil {
		return merge.Options{}, err
	}
	return opts, nil
}

// parseSourcePriority splits a comma-separated list such as "BNA, ocm,OSM".
// Blank entries are kept so validation can report them.
func parseSourcePriority(s string) []domain.SourceID {
	parts := strings.Split(s, ",")
	out := make([]domain.SourceID, len(parts))
	for i, p := range parts {
		out[i] = domain.ParseSourceID(p)
	}
	return out
}
