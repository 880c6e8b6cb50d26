// Package config defines the application configuration structures.
//
// Separated from cmd so other packages (db, ai, chat, ssh, tui) can
// depend on config without importing Cobra. Settings live in
// ~/.chatdb/config.json (or any file passed with --config) and are
// overridden by environment variables.
package config

import (
	"fmt"
	"strings"
)

// Warehouse drivers.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
	DriverMySQL    = "mysql"
	DriverBigQuery = "bigquery"
)

// SupportedDrivers lists available warehouse drivers for display.
var SupportedDrivers = []string{DriverPostgres, DriverDuckDB, DriverMySQL, DriverBigQuery}

// AppConfig is the top-level config file structure.
type AppConfig struct {
	Warehouse WarehouseConfig `json:"warehouse" yaml:"warehouse"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Chat      ChatConfig      `json:"chat" yaml:"chat"`
	Log       LogConfig       `json:"log" yaml:"log"`
	Server    ServerConfig    `json:"server" yaml:"server"`
}

// WarehouseConfig selects the analytical warehouse and the dataset
// every question is answered against.
type WarehouseConfig struct {
	Driver string `json:"driver" yaml:"driver"`

	// DSN is the connection string for postgres, duckdb and mysql.
	// For duckdb an empty DSN opens an in-memory database.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// Dataset is the identifier substituted into prompts and used for
	// schema lookup: a schema name for postgres/duckdb, a database name
	// for mysql, "project.dataset" for bigquery.
	Dataset string `json:"dataset" yaml:"dataset"`

	// BigQuery only.
	ProjectID       string `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Location        string `json:"location,omitempty" yaml:"location,omitempty"`
	CredentialsPath string `json:"credentials_path,omitempty" yaml:"credentials_path,omitempty"`

	SSH SSHConfig `json:"ssh,omitempty" yaml:"ssh,omitempty"`
}

// SSHConfig holds SSH tunnel settings for the postgres driver.
type SSHConfig struct {
	Enabled       bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Host          string `json:"host,omitempty" yaml:"host,omitempty"`
	Port          int    `json:"port,omitempty" yaml:"port,omitempty"`
	User          string `json:"user,omitempty" yaml:"user,omitempty"`
	KeyPath       string `json:"key_path,omitempty" yaml:"key_path,omitempty"`
	KeyPassphrase string `json:"key_passphrase,omitempty" yaml:"key_passphrase,omitempty"`

	// KnownHostsPath enables host key verification, e.g. ~/.ssh/known_hosts.
	KnownHostsPath string `json:"known_hosts_path,omitempty" yaml:"known_hosts_path,omitempty"`
}

// ChatConfig tunes the conversation pipeline.
type ChatConfig struct {
	Greeting string `json:"greeting" yaml:"greeting"`

	// Examples are shown in the sidebar as illustrative prompts.
	Examples []string `json:"examples" yaml:"examples"`

	// HistoryWindow is the number of most recent turns rendered into prompts.
	HistoryWindow int `json:"history_window" yaml:"history_window"`

	// MaxHistory caps the stored history; 0 keeps everything.
	MaxHistory int `json:"max_history" yaml:"max_history"`

	// SQLAttempts is the number of model calls allowed to obtain a bare
	// SQL statement before the rejection is reported.
	SQLAttempts int `json:"sql_attempts" yaml:"sql_attempts"`

	// MaxRows caps materialized result rows; 0 means no cap.
	MaxRows int `json:"max_rows" yaml:"max_rows"`

	// SQLTemplate / AnswerTemplate optionally replace the built-in prompts.
	SQLTemplate    string `json:"sql_template,omitempty" yaml:"sql_template,omitempty"`
	AnswerTemplate string `json:"answer_template,omitempty" yaml:"answer_template,omitempty"`

	// TranscriptPath is the bbolt file holding saved conversations,
	// ~/.chatdb/transcripts.db by default. Empty disables transcripts.
	TranscriptPath string `json:"transcript_path,omitempty" yaml:"transcript_path,omitempty"`
}

// LogConfig controls the application log file.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, console
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ServerConfig holds listen addresses for the HTTP surfaces.
type ServerConfig struct {
	Addr        string `json:"addr" yaml:"addr"`
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// DefaultChatConfig returns the conversation defaults.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Greeting: "Hi, I'm the OIAD assistant, a chatbot for questions about planting and " +
			"production of basic grains and vegetables. I'm still in development: the " +
			"information I produce is not official and must be validated.",
		Examples: []string{
			"Tell me what information you can provide for granosbasicos and hortalizas.",
			"What was the corn production in 2022?",
			"Which 5 departments grow the most tomato?",
			"Which structure produced the most tomato in 2019?",
			"What was the sorghum area in the apante season of 2019?",
		},
		HistoryWindow: 20,
		MaxHistory:    200,
		SQLAttempts:   2,
	}
}

// Validate reports configuration that cannot produce a working session.
// A BigQuery project missing from the config is taken from a
// "project.dataset" identifier first.
func (c *AppConfig) Validate() error {
	c.resolveProject()
	w := c.Warehouse
	switch w.Driver {
	case DriverPostgres, DriverMySQL:
		if strings.TrimSpace(w.DSN) == "" {
			return fmt.Errorf("warehouse.dsn is required for driver %q", w.Driver)
		}
	case DriverDuckDB:
	case DriverBigQuery:
		if w.ProjectID == "" {
			return fmt.Errorf("warehouse.project_id is required for driver %q", w.Driver)
		}
		if w.CredentialsPath == "" {
			return fmt.Errorf("credentials path not set. Set GOOGLE_CLOUD_CREDENTIALS or warehouse.credentials_path")
		}
	default:
		return fmt.Errorf("unknown warehouse driver %q. Supported: %s", w.Driver, strings.Join(SupportedDrivers, ", "))
	}
	if strings.TrimSpace(w.Dataset) == "" {
		return fmt.Errorf("warehouse.dataset is required")
	}
	if w.SSH.Enabled && w.Driver != DriverPostgres {
		return fmt.Errorf("ssh tunnel is only supported for the postgres driver")
	}
	if c.Chat.SQLAttempts < 1 {
		return fmt.Errorf("chat.sql_attempts must be at least 1")
	}
	if c.Chat.HistoryWindow < 0 || c.Chat.MaxHistory < 0 || c.Chat.MaxRows < 0 {
		return fmt.Errorf("chat limits must not be negative")
	}
	if least := minHistory(c.Chat.Greeting); c.Chat.MaxHistory > 0 && c.Chat.MaxHistory < least {
		return fmt.Errorf("chat.max_history must be 0 or at least %d", least)
	}
	return nil
}

// minHistory is the smallest cap that still holds the greeting and one
// question with its answer.
func minHistory(greeting string) int {
	if greeting != "" {
		return 3
	}
	return 2
}

func (c *AppConfig) resolveProject() {
	if c.Warehouse.Driver != DriverBigQuery || c.Warehouse.ProjectID != "" {
		return
	}
	i := strings.LastIndex(c.Warehouse.Dataset, ".")
	if i <= 0 {
		return
	}
	c.Warehouse.ProjectID = strings.TrimSpace(c.Warehouse.Dataset[:i])
	if c.AI.Vertex.ProjectID == "" {
		c.AI.Vertex.ProjectID = c.Warehouse.ProjectID
	}
}
