package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testMenuURL = "https://www.absecom.psu.edu/menus/user-pages/daily-menu.cfm"

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.Campuses) == 0 {
		t.Error("expected at least one default campus")
	}
	if cfg.MenuURL == "" {
		t.Error("expected menu_url to be set")
	}
	if err := validate(cfg); err != nil {
		t.Errorf("embedded defaults do not validate: %v", err)
	}
	if _, ok := cfg.Campus(""); !ok {
		t.Errorf("expected default campus %q to resolve", cfg.DefaultCampus)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
		err   bool
	}{
		{"1d", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"500ms", 500 * time.Millisecond, false},
		{"soon", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.input)
		if (err != nil) != tt.err {
			t.Errorf("ParseDuration(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{
		Fetch: FetchConfig{Timeout: "3s", Backoff: "invalid"},
		Cache: CacheConfig{TTL: "2d"},
	}
	if d := cfg.FetchTimeout(); d != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", d)
	}
	if d := cfg.FetchBackoff(); d != 500*time.Millisecond {
		t.Errorf("expected default backoff for invalid value, got %v", d)
	}
	if d := cfg.RunTimeout(); d != 45*time.Second {
		t.Errorf("expected default run timeout, got %v", d)
	}
	if d := cfg.CacheTTL(); d != 48*time.Hour {
		t.Errorf("expected 48h ttl, got %v", d)
	}
}

func TestCampusLookup(t *testing.T) {
	cfg := &Config{
		DefaultCampus: "altoona-port-sky",
		Campuses: []Campus{
			{Key: "altoona-port-sky", Match: "altoona", Enabled: true},
			{Key: "beaver-brodhead", Match: "beaver", Enabled: false},
			{Key: "berks", Match: "berks", Enabled: true},
		},
	}
	if c, ok := cfg.Campus(""); !ok || c.Key != "altoona-port-sky" {
		t.Errorf("expected default campus, got %+v", c)
	}
	if c, ok := cfg.Campus("BERKS"); !ok || c.Match != "berks" {
		t.Errorf("expected case-insensitive lookup, got %+v", c)
	}
	if _, ok := cfg.Campus("beaver-brodhead"); ok {
		t.Error("expected disabled campus to be hidden")
	}
	keys := cfg.CampusKeys()
	if len(keys) != 2 || keys[0] != "altoona-port-sky" || keys[1] != "berks" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `default_campus: berks
campuses:
  - key: berks
    name: Berks - Tully's
    match: berks
    enabled: true
  - key: beaver-brodhead
    enabled: false
fetch:
  workers: 2
top: 3
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.Workers != 2 || cfg.GetTop() != 3 {
		t.Errorf("expected overrides applied, got workers=%d top=%d", cfg.Fetch.Workers, cfg.GetTop())
	}
	// unset keys keep their defaults
	if cfg.MenuURL != testMenuURL || cfg.Fetch.Attempts != 3 {
		t.Errorf("expected defaults kept, got %q attempts=%d", cfg.MenuURL, cfg.Fetch.Attempts)
	}
	if cfg.Campuses[0].Key != "berks" {
		t.Errorf("expected first campus berks, got %s", cfg.Campuses[0].Key)
	}
	if len(cfg.Campuses) != 3 {
		t.Fatalf("expected default campuses merged, got %d", len(cfg.Campuses))
	}
	beaver := cfg.Campuses[1]
	if beaver.Enabled || beaver.Match != "beaver" {
		t.Errorf("expected beaver disabled with default match, got %+v", beaver)
	}
	if cfg.AI == nil || cfg.AI.Provider != "gemini" {
		t.Errorf("expected default ai block, got %+v", cfg.AI)
	}
}

func TestLoadNonexistentFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Campuses) == 0 {
		t.Error("expected default campuses when config doesn't exist")
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("expected defaults written on first run: %v", err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("cache:\n  ttl: forever\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("expected error for invalid ttl")
	}
}

func TestMergeCampuses(t *testing.T) {
	user := []Campus{
		{Key: "Existing", Match: "existing", Enabled: true},
		{Key: "shared", Enabled: false},
	}
	defaults := []Campus{
		{Key: "shared", Name: "Shared Cafe", Match: "shared", Enabled: true},
		{Key: "new", Match: "new", Enabled: true},
	}
	got := mergeCampuses(user, defaults)

	if len(got) != 3 {
		t.Fatalf("expected 3 campuses after merge, got %d", len(got))
	}
	if got[0].Key != "Existing" {
		t.Errorf("expected first campus Existing, got %s", got[0].Key)
	}
	if got[1].Name != "Shared Cafe" || got[1].Match != "shared" || got[1].Enabled {
		t.Errorf("expected blanks filled but enabled kept, got %+v", got[1])
	}
	if got[2].Key != "new" {
		t.Errorf("expected new appended, got %s", got[2].Key)
	}
}

func TestAIKey(t *testing.T) {
	t.Setenv(EnvAIKey, "")
	t.Setenv(EnvGeminiKey, "gemini-env")

	cfg := &Config{AI: &AIConfig{Enabled: true, Provider: "gemini"}}
	if got := cfg.AIKey(); got != "gemini-env" {
		t.Errorf("expected gemini env key, got %q", got)
	}
	if !cfg.AIEnabled() {
		t.Error("expected AI enabled")
	}

	cfg.AI.Provider = "claude"
	if cfg.AIEnabled() {
		t.Error("expected gemini key ignored for claude")
	}

	t.Setenv(EnvAIKey, "shared-env")
	if got := cfg.AIKey(); got != "shared-env" {
		t.Errorf("expected shared env key, got %q", got)
	}

	cfg.AI.APIKey = "from-config"
	if got := cfg.AIKey(); got != "from-config" {
		t.Errorf("expected config key to win, got %q", got)
	}

	cfg.AI.Enabled = false
	if cfg.AIEnabled() {
		t.Error("expected AI disabled")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MENUSCORE_TEST_VALUE=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MENUSCORE_TEST_VALUE", "")
	os.Unsetenv("MENUSCORE_TEST_VALUE")

	if err := LoadEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("MENUSCORE_TEST_VALUE"); got != "from-file" {
		t.Errorf("expected value from file, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{MenuURL: testMenuURL, Campuses: []Campus{{Key: "a", Match: "a", Enabled: true}}}, false},
		{"http url", Config{MenuURL: "http://example.com/menu"}, false},
		{"file url", Config{MenuURL: "file:///etc/passwd"}, true},
		{"missing key", Config{MenuURL: testMenuURL, Campuses: []Campus{{Match: "a"}}}, true},
		{"missing match", Config{MenuURL: testMenuURL, Campuses: []Campus{{Key: "a"}}}, true},
		{"duplicate key", Config{MenuURL: testMenuURL, Campuses: []Campus{{Key: "a", Match: "a"}, {Key: "A", Match: "b"}}}, true},
		{"unknown default", Config{MenuURL: testMenuURL, DefaultCampus: "nowhere"}, true},
		{"bad duration", Config{MenuURL: testMenuURL, Fetch: FetchConfig{Timeout: "10 seconds"}}, true},
		{"negative workers", Config{MenuURL: testMenuURL, Fetch: FetchConfig{Workers: -1}}, true},
		{"unknown provider", Config{MenuURL: testMenuURL, AI: &AIConfig{Provider: "llama"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
