// Package config loads squadchat settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/squadchat/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no path is given and SQUADCHAT_CONFIG is unset.
// A missing default file is not an error.
const DefaultPath = "config.yaml"

// Model providers.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

// Roster sources.
const (
	RosterLocal    = "local"
	RosterSportsDB = "sportsdb"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

type Config struct {
	LogLevel string       `yaml:"log_level" mapstructure:"log_level"`
	// LogFile, when set, receives a copy of every log record.
	LogFile  string       `yaml:"log_file" mapstructure:"log_file"`
	Model    ModelConfig  `yaml:"model" mapstructure:"model"`
	Roster   RosterConfig `yaml:"roster" mapstructure:"roster"`
	Store    StoreConfig  `yaml:"store" mapstructure:"store"`
	Server   ServerConfig `yaml:"server" mapstructure:"server"`
}

type ModelConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Name      string `yaml:"name" mapstructure:"name"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	AzureEndpoint string `yaml:"azure_endpoint" mapstructure:"azure_endpoint"`
	AzureAPIKey   string `yaml:"azure_api_key" mapstructure:"azure_api_key"`
}

type RosterConfig struct {
	Source    string        `yaml:"source" mapstructure:"source"`
	CachePath string        `yaml:"cache_path" mapstructure:"cache_path"`
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type StoreConfig struct {
	Backend   string        `yaml:"backend" mapstructure:"backend"`
	Path      string        `yaml:"path" mapstructure:"path"`
	RedisAddr string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	TTL       time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// EncryptionKey is a base64 encoded 32 byte key. Empty disables encryption.
	EncryptionKey string   `yaml:"encryption_key" mapstructure:"encryption_key"`
	// FallbackKeys still decrypt checkpoints sealed before a key rotation.
	FallbackKeys  []string `yaml:"fallback_keys" mapstructure:"fallback_keys"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the configuration used before any file or variable is applied.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Model: ModelConfig{
			Provider: ProviderOpenAI,
			Name:     "gpt-4.1",
		},
		Roster: RosterConfig{
			Source:    RosterLocal,
			CachePath: "data/squads.json",
			Timeout:   2 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// envKeys maps environment variables onto dotted config keys.
var envKeys = map[string]string{
	"LOGGING_LEVEL":            "log_level",
	"LOG_FILE":                 "log_file",
	"MODEL_PROVIDER":           "model.provider",
	"MODEL_NAME":               "model.name",
	"OPENAI_API_KEY":           "model.api_key",
	"OPENAI_BASE_URL":          "model.base_url",
	"MODEL_MAX_TOKENS":         "model.max_tokens",
	"AZURE_OPENAI_ENDPOINT":    "model.azure_endpoint",
	"AZURE_OPENAI_API_KEY":     "model.azure_api_key",
	"ROSTER_SOURCE":            "roster.source",
	"ROSTER_CACHE":             "roster.cache_path",
	"THE_SPORT_API_KEY":        "roster.api_key",
	"ROSTER_TIMEOUT":           "roster.timeout",
	"STORE_BACKEND":            "store.backend",
	"STORE_PATH":               "store.path",
	"REDIS_ADDR":               "store.redis_addr",
	"SESSION_TTL":              "store.ttl",
	"ENCRYPTION_KEY":           "store.encryption_key",
	"ENCRYPTION_FALLBACK_KEYS": "store.fallback_keys",
	"SQUADCHAT_ADDR":           "server.addr",
}

// Load builds the configuration. path overrides SQUADCHAT_CONFIG; getenv is
// usually os.Getenv and may be nil.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if path = getenv("SQUADCHAT_CONFIG"); path != "" {
			explicit = true
		} else {
			path = DefaultPath
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	overrides := map[string]any{}
	for env, key := range envKeys {
		v := getenv(env)
		if v == "" {
			continue
		}
		setPath(overrides, strings.Split(key, "."), v)
	}
	if len(overrides) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(overrides); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

func setPath(m map[string]any, path []string, v string) {
	if len(path) == 1 {
		m[path[0]] = v
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[path[0]] = child
	}
	setPath(child, path[1:], v)
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}

	switch c.Model.Provider {
	case ProviderOpenAI:
		if c.Model.APIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAzure:
		if c.Model.AzureEndpoint == "" || c.Model.AzureAPIKey == "" {
			problems = append(problems, "AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY are required for the azure provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown model provider %q", c.Model.Provider))
	}
	if c.Model.Name == "" {
		problems = append(problems, "model name is required")
	}

	switch c.Roster.Source {
	case RosterLocal:
		if c.Roster.CachePath == "" {
			problems = append(problems, "roster cache path is required for the local source")
		}
	case RosterSportsDB:
		if c.Roster.APIKey == "" {
			problems = append(problems, "THE_SPORT_API_KEY is required for the sportsdb source")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown roster source %q", c.Roster.Source))
	}

	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			problems = append(problems, "REDIS_ADDR is required for the redis backend")
		}
	case BackendSQL:
		if c.Store.Path == "" {
			problems = append(problems, "STORE_PATH (database file) is required for the sql backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}
	if _, fallback, err := c.Store.Keys(); err != nil {
		problems = append(problems, err.Error())
	} else if len(fallback) > 0 && c.Store.EncryptionKey == "" {
		problems = append(problems, "fallback keys need an ENCRYPTION_KEY")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateStore checks only the settings needed to open the session store,
// for commands that never call the model.
func (c *Config) ValidateStore() error {
	storeOnly := *c
	storeOnly.Model = ModelConfig{Provider: ProviderOpenAI, Name: "-", APIKey: "-"}
	storeOnly.Roster = RosterConfig{Source: RosterLocal, CachePath: "-"}
	return storeOnly.Validate()
}

// Key decodes the encryption key. It returns nil when encryption is disabled.
func (s StoreConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	return decodeKey("encryption key", s.EncryptionKey)
}

// Keys decodes the active key and the fallback keys, in order. Blank
// fallback entries are skipped.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	active, err = s.Key()
	if err != nil {
		return nil, nil, err
	}
	for i, raw := range s.FallbackKeys {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key, err := decodeKey(fmt.Sprintf("fallback key %d", i), raw)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(name, raw string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s is not valid base64: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s must decode to 32 bytes, got %d", name, len(key))
	}
	return key, nil
}
