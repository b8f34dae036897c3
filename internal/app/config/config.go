package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Adi0604/Water-Works/internal/adapters/charts"
	"github.com/Adi0604/Water-Works/internal/adapters/sqlsource"
	"github.com/Adi0604/Water-Works/internal/adapters/xlsxsource"
	"github.com/Adi0604/Water-Works/internal/domain"
)

const (
	KindSQL  = "sql"
	KindXLSX = "xlsx"

	DefaultSQLDelay  = time.Second
	DefaultXLSXDelay = 15 * time.Second
)

// Environment variables that override the database block.
const (
	EnvDSN      = "WATERWORKS_DB_DSN"
	EnvHost     = "WATERWORKS_DB_HOST"
	EnvPort     = "WATERWORKS_DB_PORT"
	EnvName     = "WATERWORKS_DB_NAME"
	EnvUser     = "WATERWORKS_DB_USER"
	EnvPassword = "WATERWORKS_DB_PASSWORD"
)

type Config struct {
	HTTP     HTTPConfig      `yaml:"http"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	Logging  LoggingConfig   `yaml:"logging"`
	Database DatabaseConfig  `yaml:"database"`
	Sources  []SourceConfig  `yaml:"sources"`
	Variants []VariantConfig `yaml:"variants"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// On reports whether /metrics is served. Metrics are on unless disabled.
func (m MetricsConfig) On() bool {
	return m.Enabled == nil || *m.Enabled
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	Driver   string            `yaml:"driver"`
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Name     string            `yaml:"name"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Params   map[string]string `yaml:"params"`
}

type SourceConfig struct {
	Name            string        `yaml:"name"`
	Kind            string        `yaml:"kind"`
	TimestampColumn string        `yaml:"timestamp_column"`
	Path            string        `yaml:"path"`
	Sheet           string        `yaml:"sheet"`
	Delay           time.Duration `yaml:"delay"`
}

type VariantConfig struct {
	Name         string              `yaml:"name"`
	Slug         string              `yaml:"slug"`
	Source       string              `yaml:"source"`
	Feed         string              `yaml:"feed"`
	Distribution charts.Distribution `yaml:"distribution"`
	Flow         []domain.Metric     `yaml:"flow"`
	Totalizer    []domain.Metric     `yaml:"totalizer"`
}

// Catalog returns the metric catalog of the variant.
func (v VariantConfig) Catalog() domain.Catalog {
	return domain.Catalog{Flow: v.Flow, Totalizer: v.Totalizer}
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes, completes and validates a YAML document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		s.Kind = strings.ToLower(s.Kind)
		if s.TimestampColumn == "" {
			s.TimestampColumn = domain.TimestampKey
		}
		if s.Delay == 0 {
			switch s.Kind {
			case KindXLSX:
				s.Delay = DefaultXLSXDelay
			default:
				s.Delay = DefaultSQLDelay
			}
		}
	}
	for i := range c.Variants {
		v := &c.Variants[i]
		if v.Slug == "" {
			v.Slug = slugify(v.Name)
		}
		if v.Distribution == "" {
			v.Distribution = charts.DistributionPie
		}
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	db := &c.Database
	if v, ok := lookup(EnvDSN); ok {
		db.DSN = v
	}
	if v, ok := lookup(EnvHost); ok {
		db.Host = v
	}
	if v, ok := lookup(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		db.Port = port
	}
	if v, ok := lookup(EnvName); ok {
		db.Name = v
	}
	if v, ok := lookup(EnvUser); ok {
		db.User = v
	}
	if v, ok := lookup(EnvPassword); ok {
		db.Password = v
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.Variants) == 0 {
		return errors.New("at least one variant is required")
	}

	sources := make(map[string]SourceConfig, len(c.Sources))
	needDB := false
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("sources[%d].name is required", i)
		}
		if _, dup := sources[s.Name]; dup {
			return fmt.Errorf("source %q is defined twice", s.Name)
		}
		if s.Delay < 0 {
			return fmt.Errorf("source %q: delay must not be negative", s.Name)
		}
		switch s.Kind {
		case KindSQL:
			needDB = true
		case KindXLSX:
			if s.Path == "" {
				return fmt.Errorf("source %q: path is required", s.Name)
			}
			if err := xlsxsource.CheckFormat(s.Path); err != nil {
				return fmt.Errorf("source %q: %w", s.Name, err)
			}
		default:
			return fmt.Errorf("source %q: unknown kind %q", s.Name, s.Kind)
		}
		sources[s.Name] = s
	}

	if needDB {
		if _, err := sqlsource.DialectFor(c.Database.Driver); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if c.Database.DSN == "" && c.Database.Name == "" {
			return errors.New("database: dsn or name is required")
		}
	}

	names := map[string]bool{}
	slugs := map[string]bool{}
	for i, v := range c.Variants {
		if v.Name == "" {
			return fmt.Errorf("variants[%d].name is required", i)
		}
		if names[v.Name] {
			return fmt.Errorf("variant %q is defined twice", v.Name)
		}
		if slugs[v.Slug] {
			return fmt.Errorf("variant %q: slug %q already used", v.Name, v.Slug)
		}
		names[v.Name], slugs[v.Slug] = true, true

		src, ok := sources[v.Source]
		if !ok {
			return fmt.Errorf("variant %q: unknown source %q", v.Name, v.Source)
		}
		if src.Kind == KindSQL && v.Feed == "" {
			return fmt.Errorf("variant %q: feed is required for sql sources", v.Name)
		}
		if !v.Distribution.Valid() {
			return fmt.Errorf("variant %q: unknown distribution %q", v.Name, v.Distribution)
		}
		if err := validateMetrics(v.Flow); err != nil {
			return fmt.Errorf("variant %q flow: %w", v.Name, err)
		}
		if err := validateMetrics(v.Totalizer); err != nil {
			return fmt.Errorf("variant %q totalizer: %w", v.Name, err)
		}
	}
	return nil
}

func validateMetrics(ms []domain.Metric) error {
	for i, m := range ms {
		if m.Name == "" {
			return fmt.Errorf("metric %d: name is required", i)
		}
		if m.Max <= 0 {
			return fmt.Errorf("metric %q: max must be positive", m.Name)
		}
	}
	return nil
}

// Source looks up a source by name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}

// Feeds returns every feed the variants read from source.
func (c *Config) Feeds(source string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range c.Variants {
		if v.Source == source && !seen[v.Feed] {
			seen[v.Feed] = true
			out = append(out, v.Feed)
		}
	}
	return out
}

// ConnString returns the explicit DSN, or builds one from the discrete
// fields in the form the configured driver expects.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	q := url.Values{}
	for k, v := range d.Params {
		q.Set(k, v)
	}
	host := d.Host
	if d.Port != 0 {
		host = fmt.Sprintf("%s:%d", d.Host, d.Port)
	}

	switch strings.ToLower(d.Driver) {
	case "sqlite":
		return d.Name
	case "sqlserver":
		q.Set("database", d.Name)
		u := url.URL{Scheme: "sqlserver", Host: host, RawQuery: q.Encode()}
		if d.User != "" {
			u.User = url.UserPassword(d.User, d.Password)
		}
		return u.String()
	default:
		if q.Get("sslmode") == "" {
			q.Set("sslmode", "disable")
		}
		u := url.URL{Scheme: "postgres", Host: host, Path: "/" + d.Name, RawQuery: q.Encode()}
		if d.User != "" {
			u.User = url.UserPassword(d.User, d.Password)
		}
		return u.String()
	}
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
