package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/matheuskafuri/menuscore/internal/score"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Env vars consulted for the AI key when the config leaves it empty.
const (
	EnvAIKey     = "MENUSCORE_AI_KEY"
	EnvGeminiKey = "GEMINI_API_KEY"
)

type Campus struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Match   string `yaml:"match"`
	Enabled bool   `yaml:"enabled"`
}

type FetchConfig struct {
	Workers    int    `yaml:"workers"`
	Timeout    string `yaml:"timeout"`
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	RunTimeout string `yaml:"run_timeout"`
}

type CacheConfig struct {
	TTL string `yaml:"ttl"`
}

type AIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "gemini", "claude" or "openai"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type Config struct {
	MenuURL       string        `yaml:"menu_url"`
	DateFormat    string        `yaml:"date_format"`
	DefaultCampus string        `yaml:"default_campus"`
	Campuses      []Campus      `yaml:"campuses"`
	Fetch         FetchConfig   `yaml:"fetch"`
	Cache         CacheConfig   `yaml:"cache"`
	Scoring       score.Weights `yaml:"scoring"`
	AI            *AIConfig     `yaml:"ai,omitempty"`
	Top           int           `yaml:"top,omitempty"`
}

// AIEnabled returns true if AI scoring is switched on and a key resolves.
func (c *Config) AIEnabled() bool {
	return c.AI != nil && c.AI.Enabled && c.AIKey() != ""
}

// AIKey returns the resolved API key (config or env var).
func (c *Config) AIKey() string {
	if c.AI != nil && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	if key := os.Getenv(EnvAIKey); key != "" {
		return key
	}
	if c.AI != nil && c.AI.Provider == "gemini" {
		return os.Getenv(EnvGeminiKey)
	}
	return ""
}

func (c *Config) FetchTimeout() time.Duration {
	return parseDuration(c.Fetch.Timeout, 10*time.Second)
}

func (c *Config) FetchBackoff() time.Duration {
	return parseDuration(c.Fetch.Backoff, 500*time.Millisecond)
}

func (c *Config) RunTimeout() time.Duration {
	return parseDuration(c.Fetch.RunTimeout, 45*time.Second)
}

func (c *Config) CacheTTL() time.Duration {
	return parseDuration(c.Cache.TTL, 24*time.Hour)
}

// Layout returns the layout dates are given in on the command line.
func (c *Config) Layout() string {
	if c.DateFormat == "" {
		return "2006-01-02"
	}
	return c.DateFormat
}

// GetTop returns how many items per meal to show, defaulting to 10.
func (c *Config) GetTop() int {
	if c.Top <= 0 {
		return 10
	}
	return c.Top
}

func (c *Config) EnabledCampuses() []Campus {
	var out []Campus
	for _, cp := range c.Campuses {
		if cp.Enabled {
			out = append(out, cp)
		}
	}
	return out
}

// Campus returns the enabled campus with the given key. An empty key selects
// the default campus.
func (c *Config) Campus(key string) (Campus, bool) {
	if key == "" {
		key = c.DefaultCampus
	}
	for _, cp := range c.EnabledCampuses() {
		if strings.EqualFold(cp.Key, key) {
			return cp, true
		}
	}
	return Campus{}, false
}

func (c *Config) CampusKeys() []string {
	var keys []string
	for _, cp := range c.EnabledCampuses() {
		keys = append(keys, cp.Key)
	}
	return keys
}

// parseDuration accepts Go durations and the "Nd" day syntax.
func parseDuration(s string, def time.Duration) time.Duration {
	d, err := ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ParseDuration parses a Go duration or a whole number of days ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "menuscore", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "menuscore", "menuscore.db")
}

// LoadEnv reads KEY=value files into the environment. Variables already set
// win, and missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path over the embedded defaults. Campuses the
// file names come first, with blank fields taken from the default campus of
// the same key; default campuses with other keys follow.
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run; failing that,
			// the embedded defaults still apply.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := *defaults
	cfg.Campuses = nil
	cfg.AI = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Campuses = mergeCampuses(cfg.Campuses, defaults.Campuses)
	if cfg.AI == nil {
		cfg.AI = defaults.AI
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func mergeCampuses(user, defaults []Campus) []Campus {
	byKey := make(map[string]Campus, len(defaults))
	for _, c := range defaults {
		byKey[strings.ToLower(c.Key)] = c
	}
	seen := make(map[string]bool, len(user))
	out := make([]Campus, 0, len(user)+len(defaults))
	for _, c := range user {
		k := strings.ToLower(c.Key)
		seen[k] = true
		if d, ok := byKey[k]; ok {
			if c.Name == "" {
				c.Name = d.Name
			}
			if c.Match == "" {
				c.Match = d.Match
			}
		}
		out = append(out, c)
	}
	for _, c := range defaults {
		if !seen[strings.ToLower(c.Key)] {
			out = append(out, c)
		}
	}
	return out
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	u, err := url.Parse(cfg.MenuURL)
	if err != nil {
		return fmt.Errorf("menu_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("menu_url: scheme must be http or https, got %q", u.Scheme)
	}

	keys := make(map[string]bool)
	for i, c := range cfg.Campuses {
		if c.Key == "" {
			return fmt.Errorf("campus %d: key is required", i)
		}
		if c.Match == "" {
			return fmt.Errorf("campus %q: match is required", c.Key)
		}
		k := strings.ToLower(c.Key)
		if keys[k] {
			return fmt.Errorf("campus %q: duplicate key", c.Key)
		}
		keys[k] = true
	}
	if cfg.DefaultCampus != "" {
		if _, ok := cfg.Campus(cfg.DefaultCampus); !ok {
			return fmt.Errorf("default_campus %q is not an enabled campus", cfg.DefaultCampus)
		}
	}

	durations := map[string]string{
		"fetch.timeout":     cfg.Fetch.Timeout,
		"fetch.backoff":     cfg.Fetch.Backoff,
		"fetch.run_timeout": cfg.Fetch.RunTimeout,
		"cache.ttl":         cfg.Cache.TTL,
	}
	for name, v := range durations {
		if v == "" {
			continue
		}
		if _, err := ParseDuration(v); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	if cfg.Fetch.Workers < 0 || cfg.Fetch.Attempts < 0 {
		return fmt.Errorf("fetch: workers and attempts must not be negative")
	}

	if cfg.AI != nil && cfg.AI.Provider != "" {
		valid := map[string]bool{"gemini": true, "claude": true, "openai": true}
		if !valid[cfg.AI.Provider] {
			return fmt.Errorf("ai: unknown provider %q (valid: gemini, claude, openai)", cfg.AI.Provider)
		}
	}
	return nil
}
