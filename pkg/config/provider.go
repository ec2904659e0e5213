// Package config loads solarstats settings from a YAML file or a SQLite database.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Defaults applied by ApplyDefaults
const (
	DefaultTimestampHeader      = "Date-Hour(NMT)"
	DefaultTimestampLayout      = "02.01.2006-15:04"
	DefaultTimezone             = "UTC"
	DefaultDelimiter            = ","
	DefaultPreferredCorrelation = "Radiation"
	DefaultBucket               = "daily"
	DefaultHistogramBins        = 30
	DefaultMissingValues        = "exclude"
	DefaultListenAddr           = "0.0.0.0"
	DefaultHTTPPort             = 8080
)

// DefaultGenerationKeywords are matched against column names to find generation output
var DefaultGenerationKeywords = []string{"GENERATION", "YIELD", "POWER", "PRODUCTION"}

var validBuckets = map[string]bool{
	"none": true, "hourly": true, "daily": true, "weekly": true, "monthly": true,
}

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSource() (*SourceData, error)
	GetAnalysis() (*AnalysisData, error)
	GetServer() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Source   SourceData   `json:"source" yaml:"source"`
	Analysis AnalysisData `json:"analysis" yaml:"analysis"`
	Server   ServerData   `json:"server" yaml:"server"`
}

// SourceData describes the plant log to analyse
type SourceData struct {
	Path            string `json:"path" yaml:"path"`
	TimestampHeader string `json:"timestamp_header,omitempty" yaml:"timestamp_header,omitempty"`
	TimestampLayout string `json:"timestamp_layout,omitempty" yaml:"timestamp_layout,omitempty"`
	Timezone        string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Delimiter       string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
}

// AnalysisData holds the defaults used when a request leaves a choice open
type AnalysisData struct {
	GenerationKeywords   []string `json:"generation_keywords,omitempty" yaml:"generation_keywords,omitempty"`
	PreferredCorrelation string   `json:"preferred_correlation,omitempty" yaml:"preferred_correlation,omitempty"`
	DefaultBucket        string   `json:"default_bucket,omitempty" yaml:"default_bucket,omitempty"`
	HistogramBins        int      `json:"histogram_bins,omitempty" yaml:"histogram_bins,omitempty"`
	MissingValues        string   `json:"missing_values,omitempty" yaml:"missing_values,omitempty"`
}

// ServerData configures the HTTP listener
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	HTTPPort   int    `json:"http_port,omitempty" yaml:"http_port,omitempty"`
}

// Location resolves the configured timezone
func (s SourceData) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// DelimiterRune returns the field delimiter as a rune, or ',' when unset
func (s SourceData) DelimiterRune() rune {
	if s.Delimiter == "" {
		return ','
	}
	if s.Delimiter == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// Addr returns the host:port the server listens on
func (s ServerData) Addr() string {
	return fmt.Sprintf("%s:%d", s.ListenAddr, s.HTTPPort)
}

// ApplyDefaults fills every unset field with its default
func (c *ConfigData) ApplyDefaults() {
	if c.Source.TimestampHeader == "" {
		c.Source.TimestampHeader = DefaultTimestampHeader
	}
	if c.Source.TimestampLayout == "" {
		c.Source.TimestampLayout = DefaultTimestampLayout
	}
	if c.Source.Timezone == "" {
		c.Source.Timezone = DefaultTimezone
	}
	if c.Source.Delimiter == "" {
		c.Source.Delimiter = DefaultDelimiter
	}

	if len(c.Analysis.GenerationKeywords) == 0 {
		c.Analysis.GenerationKeywords = append([]string(nil), DefaultGenerationKeywords...)
	}
	if c.Analysis.PreferredCorrelation == "" {
		c.Analysis.PreferredCorrelation = DefaultPreferredCorrelation
	}
	if c.Analysis.DefaultBucket == "" {
		c.Analysis.DefaultBucket = DefaultBucket
	}
	if c.Analysis.HistogramBins == 0 {
		c.Analysis.HistogramBins = DefaultHistogramBins
	}
	if c.Analysis.MissingValues == "" {
		c.Analysis.MissingValues = DefaultMissingValues
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = DefaultHTTPPort
	}
}

// Validate checks a configuration that has already had defaults applied
func (c *ConfigData) Validate() error {
	var problems []string

	if c.Source.Path == "" {
		problems = append(problems, "source.path is required")
	}
	if _, err := c.Source.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("source.timezone %q: %v", c.Source.Timezone, err))
	}
	if c.Source.Delimiter != `\t` && utf8.RuneCountInString(c.Source.Delimiter) != 1 {
		problems = append(problems, fmt.Sprintf("source.delimiter must be a single character, got %q", c.Source.Delimiter))
	}
	if !validBuckets[strings.ToLower(c.Analysis.DefaultBucket)] {
		problems = append(problems, fmt.Sprintf("analysis.default_bucket %q is not one of none, hourly, daily, weekly, monthly", c.Analysis.DefaultBucket))
	}
	if c.Analysis.HistogramBins < 1 {
		problems = append(problems, fmt.Sprintf("analysis.histogram_bins must be positive, got %d", c.Analysis.HistogramBins))
	}
	switch strings.ToLower(c.Analysis.MissingValues) {
	case "exclude", "error":
	default:
		problems = append(problems, fmt.Sprintf("analysis.missing_values must be exclude or error, got %q", c.Analysis.MissingValues))
	}
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("server.http_port %d out of range", c.Server.HTTPPort))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Load reads the configuration from provider, applies defaults and validates it
func Load(provider ConfigProvider) (*ConfigData, error) {
	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewProvider opens the configuration at path with the named backend, "yaml" or "sqlite"
func NewProvider(backend, path string) (ConfigProvider, error) {
	switch backend {
	case "yaml", "":
		return NewYAMLProvider(path), nil
	case "sqlite":
		provider, err := NewSQLiteProvider(path)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", backend)
	}
}
