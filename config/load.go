package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// LookupFunc resolves an environment variable. os.LookupEnv in
// production, a map in tests.
type LookupFunc func(string) (string, bool)

// Dir returns ~/.chatdb, where config, logs and transcripts live.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chatdb"), nil
}

// DefaultPath returns ~/.chatdb/config.json.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFromEnv loads the config file at path (the default path when empty)
// and applies process environment overrides.
func LoadFromEnv(path string) (*AppConfig, error) {
	return Load(path, os.LookupEnv)
}

// Load reads the config file; a missing file yields defaults.
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON.
// Env vars override file config.
func Load(path string, lookup LookupFunc) (*AppConfig, error) {
	if lookup == nil {
		return nil, fmt.Errorf("lookup function is required")
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := defaultAppConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if cfg.AI.Vertex.ProjectID == "" {
		cfg.AI.Vertex.ProjectID = cfg.Warehouse.ProjectID
	}
	if cfg.AI.Vertex.CredentialsPath == "" {
		cfg.AI.Vertex.CredentialsPath = cfg.Warehouse.CredentialsPath
	}
	return cfg, nil
}

// Save writes the config to path (the default path when empty).
func Save(path string, cfg *AppConfig) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func decode(path string, data []byte, cfg *AppConfig) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyEnv(cfg *AppConfig, lookup LookupFunc) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"CHATDB_WAREHOUSE_DRIVER", &cfg.Warehouse.Driver},
		{"CHATDB_WAREHOUSE_DSN", &cfg.Warehouse.DSN},
		{"CHATDB_DATASET", &cfg.Warehouse.Dataset},
		{"CHATDB_PROJECT_ID", &cfg.Warehouse.ProjectID},
		{"CHATDB_LOCATION", &cfg.Warehouse.Location},
		// GOOGLE_APPLICATION_CREDENTIALS is read first so the
		// project-specific GOOGLE_CLOUD_CREDENTIALS wins when both are set.
		{"GOOGLE_APPLICATION_CREDENTIALS", &cfg.Warehouse.CredentialsPath},
		{"GOOGLE_CLOUD_CREDENTIALS", &cfg.Warehouse.CredentialsPath},
		{"CHATDB_AI_PROVIDER", &cfg.AI.Provider},
		{"OPENAI_API_KEY", &cfg.AI.OpenAI.APIKey},
		{"OPENAI_BASE_URL", &cfg.AI.OpenAI.BaseURL},
		{"ANTHROPIC_API_KEY", &cfg.AI.Anthropic.APIKey},
		{"GEMINI_API_KEY", &cfg.AI.Gemini.APIKey},
		{"OLLAMA_HOST", &cfg.AI.Ollama.Host},
		{"CHATDB_LOG_LEVEL", &cfg.Log.Level},
		{"CHATDB_LOG_FORMAT", &cfg.Log.Format},
		{"CHATDB_HTTP_ADDR", &cfg.Server.Addr},
		{"CHATDB_METRICS_ADDR", &cfg.Server.MetricsAddr},
		{"CHATDB_TRANSCRIPT_PATH", &cfg.Chat.TranscriptPath},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && strings.TrimSpace(v) != "" {
			*s.dst = strings.TrimSpace(v)
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CHATDB_HISTORY_WINDOW", &cfg.Chat.HistoryWindow},
		{"CHATDB_MAX_HISTORY", &cfg.Chat.MaxHistory},
		{"CHATDB_SQL_ATTEMPTS", &cfg.Chat.SQLAttempts},
		{"CHATDB_MAX_ROWS", &cfg.Chat.MaxRows},
	}
	for _, i := range ints {
		v, ok := lookup(i.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", i.key, err)
		}
		*i.dst = n
	}
	return nil
}

func defaultAppConfig() *AppConfig {
	cfg := &AppConfig{
		Warehouse: WarehouseConfig{
			Driver:  DriverDuckDB,
			Dataset: "main",
			SSH:     SSHConfig{Port: 22},
		},
		AI:   DefaultAIConfig(),
		Chat: DefaultChatConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
	if dir, err := Dir(); err == nil {
		cfg.Chat.TranscriptPath = filepath.Join(dir, "transcripts.db")
	}
	return cfg
}
