package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	InputPath  string
	OutputPath string
	Delimiter  rune

	TargetLocation      string
	CaseThreshold       float64
	MinDate             time.Time
	ComparisonLocations []string
	RollingWindow       int
	RollingMode         domain.RollingMode

	ChartDir    string
	ChartFormat string

	// Optional outputs; empty disables them.
	XLSXPath     string
	MetricsFile  string
	KafkaBrokers []string
	KafkaTopic   string
	HTTPAddr     string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	threshold, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CASE_THRESHOLD", "1000"), 64)
	if err != nil || threshold < 0 {
		return nil, errors.New("invalid CASE_THRESHOLD: must be a non-negative number")
	}

	minDate, err := time.Parse(domain.DateLayout, sharedcfg.EnvOrDefault("MIN_DATE", "2020-04-08"))
	if err != nil {
		return nil, errors.New("invalid MIN_DATE: must be YYYY-MM-DD")
	}

	window, err := strconv.Atoi(sharedcfg.EnvOrDefault("ROLLING_WINDOW", strconv.Itoa(domain.DefaultWindow)))
	if err != nil || window <= 0 {
		return nil, errors.New("invalid ROLLING_WINDOW: must be a positive integer")
	}

	mode, err := domain.ParseRollingMode(sharedcfg.EnvOrDefault("ROLLING_MODE", string(domain.RollingRows)))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLING_MODE: %w", err)
	}

	delim := sharedcfg.EnvOrDefault("CSV_DELIMITER", ",")
	if utf8.RuneCountInString(delim) != 1 {
		return nil, errors.New("invalid CSV_DELIMITER: must be a single character")
	}
	delimiter, _ := utf8.DecodeRuneInString(delim)

	format := strings.ToLower(sharedcfg.EnvOrDefault("CHART_FORMAT", "png"))
	switch format {
	case "png", "svg", "pdf":
	default:
		return nil, fmt.Errorf("invalid CHART_FORMAT %q: must be png, svg, or pdf", format)
	}

	cfg := &Config{
		InputPath:  sharedcfg.EnvOrDefault("INPUT_PATH", "data/owid-covid-data.csv"),
		OutputPath: sharedcfg.EnvOrDefault("OUTPUT_PATH", "data/covid-cleaned.csv"),
		Delimiter:  delimiter,

		TargetLocation:      sharedcfg.EnvOrDefault("TARGET_LOCATION", "India"),
		CaseThreshold:       threshold,
		MinDate:             minDate,
		ComparisonLocations: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("COMPARISON_LOCATIONS", "India,United States,Brazil")),
		RollingWindow:       window,
		RollingMode:         mode,

		ChartDir:    sharedcfg.EnvOrDefault("CHART_DIR", "charts"),
		ChartFormat: format,

		XLSXPath:     os.Getenv("XLSX_PATH"),
		MetricsFile:  os.Getenv("METRICS_FILE"),
		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "covid-observations"),
		HTTPAddr:     os.Getenv("HTTP_ADDR"),

		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.InputPath == "" {
		return errors.New("INPUT_PATH is required")
	}
	if c.OutputPath == "" {
		return errors.New("OUTPUT_PATH is required")
	}
	if samePath(c.InputPath, c.OutputPath) {
		return errors.New("OUTPUT_PATH must differ from INPUT_PATH")
	}
	if c.TargetLocation == "" {
		return errors.New("TARGET_LOCATION is required")
	}
	if len(c.ComparisonLocations) == 0 {
		return errors.New("COMPARISON_LOCATIONS must list at least one location")
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// KafkaEnabled reports whether observations should be published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
