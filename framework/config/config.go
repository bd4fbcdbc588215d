package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File is the config file path relative to the application base.
var File = filepath.Join("configs", "config.yaml")

// Configuration is the application's config.yaml, with ${VAR} references
// expanded from the environment, plus the typed APP_* settings.
type Configuration struct {
	App AppConfig

	base   string
	values map[string]any
}

type AppConfig struct {
	Name  string
	Env   string // production | development
	Debug bool
	URL   string
	Port  string
	Key   string
}

// Load reads .env files (if present) and then <base>/configs/config.yaml.
// Without envFiles, <base>/.env is tried.
//
//	cfg, err := config.Load(".")
func Load(base string, envFiles ...string) (*Configuration, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{filepath.Join(base, ".env")}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	path := filepath.Join(base, File)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(base, raw)
}

// Parse builds a Configuration from YAML source.
func Parse(base string, raw []byte) (*Configuration, error) {
	values := map[string]any{}
	if err := yaml.Unmarshal([]byte(expand(string(raw))), &values); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", File, err)
	}
	return FromMap(base, values), nil
}

// FromMap wraps already-parsed values.
func FromMap(base string, values map[string]any) *Configuration {
	if values == nil {
		values = map[string]any{}
	}
	c := &Configuration{base: base, values: values}
	c.App = AppConfig{
		Name:  env("APP_NAME", c.String("name", "SPF")),
		Env:   env("APP_ENV", c.String("environment", "production")),
		Debug: envBool("APP_DEBUG", c.Bool("debug", false)),
		URL:   env("APP_URL", c.String("url", "http://localhost")),
		Port:  env("APP_PORT", c.String("server.port", "8000")),
		Key:   env("APP_KEY", ""),
	}
	return c
}

// Base is the application root the config was loaded from.
func (c *Configuration) Base() string { return c.base }

// Keys returns the top-level keys, sorted.
func (c *Configuration) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Get returns the value at a dotted path ("databases.mysql.0.host"), or nil.
func (c *Configuration) Get(key string) any {
	v, _ := c.Lookup(key)
	return v
}

// Lookup is like Get but reports whether the path exists.
func (c *Configuration) Lookup(key string) (any, bool) {
	if v, ok := c.values[key]; ok {
		return v, true
	}
	var cur any = c.values
	for _, part := range strings.Split(key, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at key as a string, falling back to def.
func (c *Configuration) String(key, def string) string {
	v, ok := c.Lookup(key)
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, []any:
		return def
	}
	return fmt.Sprint(v)
}

// Int returns the value at key as an int, falling back to def.
func (c *Configuration) Int(key string, def int) int {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if i, err := strconv.Atoi(t); err == nil {
			return i
		}
	}
	return def
}

// Bool returns the value at key as a bool, falling back to def.
func (c *Configuration) Bool(key string, def bool) bool {
	v, ok := c.Lookup(key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	return def
}

// Decode copies the subtree at key into out using its yaml tags.
//
//	var dbs struct{ MySQL []MySQL `yaml:"mysql"` }
//	err := cfg.Decode("databases", &dbs)
func (c *Configuration) Decode(key string, out any) error {
	v, ok := c.Lookup(key)
	if !ok {
		return fmt.Errorf("config: %q is not set", key)
	}
	raw, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("config: %q: %w", key, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("config: %q: %w", key, err)
	}
	return nil
}

// ── Environment variables ─────────────────────────────────────────────────────

// Env returns a raw env value, falling back to defaultVal.
func Env(key, defaultVal string) string {
	return env(key, defaultVal)
}

// EnvInt returns an int env value.
func EnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// EnvBool returns a bool env value.
func EnvBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expand replaces ${VAR} and ${VAR:-default} with environment values.
func expand(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		return env(m[1], m[2])
	})
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
