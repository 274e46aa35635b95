package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"gopkg.in/yaml.v3"
)

const (
	DefaultApiURL            = "https://marketplace.walmartapis.com/v3/"
	DefaultRequestsPerMinute = 60
	DateFormat               = strfmt.RFC3339FullDate
)

var ErrInvalidConfig = errors.New("invalid config")

var datePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

// WalmartConfig is the user facing connector configuration.
type WalmartConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	StartDate    string `yaml:"start_date"`
	EndDate      string `yaml:"end_date"`

	ApiURL            string `yaml:"api_url"`
	PageSize          int    `yaml:"page_size"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

type AppConfig struct {
	Walmart  WalmartConfig  `yaml:"walmart"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// LoadConfig reads a YAML or JSON file. Both the nested layout
// (walmart:, postgres:) and the flat connector layout used by config.json
// files are accepted. Postgres fields missing from the file come from the environment.
func LoadConfig(filename string) (*AppConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := &AppConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, filename, err)
	}
	if config.Walmart == (WalmartConfig{}) {
		if err := yaml.Unmarshal(data, &config.Walmart); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, filename, err)
		}
	}
	config.Postgres = config.Postgres.withDefaults(GetPostgresConfig())
	return config, nil
}

// Validate checks required fields and date formats.
func (c WalmartConfig) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("%w: client_secret is required", ErrInvalidConfig)
	}
	if c.PageSize < 0 {
		return fmt.Errorf("%w: page_size must not be negative", ErrInvalidConfig)
	}
	start, err := parseDate("start_date", c.StartDate)
	if err != nil {
		return err
	}
	if c.EndDate == "" {
		return nil
	}
	end, err := parseDate("end_date", c.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", ErrInvalidConfig, c.EndDate, c.StartDate)
	}
	return nil
}

// Start returns the parsed start date. Validate must have succeeded.
func (c WalmartConfig) Start() time.Time {
	t, _ := parseDate("start_date", c.StartDate)
	return t
}

// End returns the parsed end date and false when it is not set.
func (c WalmartConfig) End() (time.Time, bool) {
	if c.EndDate == "" {
		return time.Time{}, false
	}
	t, err := parseDate("end_date", c.EndDate)
	return t, err == nil
}

func (c WalmartConfig) BaseURL() string {
	if c.ApiURL == "" {
		return DefaultApiURL
	}
	if !strings.HasSuffix(c.ApiURL, "/") {
		return c.ApiURL + "/"
	}
	return c.ApiURL
}

func (c WalmartConfig) RateLimit() int {
	if c.RequestsPerMinute <= 0 {
		return DefaultRequestsPerMinute
	}
	return c.RequestsPerMinute
}

func parseDate(field, value string) (time.Time, error) {
	if !datePattern.MatchString(value) {
		return time.Time{}, fmt.Errorf("%w: %s must look like 2017-01-25, got %q", ErrInvalidConfig, field, value)
	}
	var d strfmt.Date
	if err := d.UnmarshalText([]byte(value)); err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, field, err)
	}
	return time.Time(d), nil
}
