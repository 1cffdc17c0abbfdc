// Package config loads the explorer configuration from an optional JSON file and
// BMMAP_* environment variables, in that order of precedence from low to high.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/psidex/bmmap/internal/lib"
)

// Config aggregates application configuration values.
type Config struct {
	Dataset DatasetConfig `json:"dataset"`
	HTTP    HTTPConfig    `json:"http"`
	GRPC    GRPCConfig    `json:"grpc"`
	Logging LoggingConfig `json:"logging"`
}

// DefaultDatasetPath is loaded when no dataset source is configured at all.
const DefaultDatasetPath = "bmmap.json"

// DatasetConfig says where the graph is loaded from. Exactly one of Path, URL or
// Neo4jURI is used, checked in that order.
type DatasetConfig struct {
	Path          string       `json:"path"`
	URL           string       `json:"url"`
	FetchTimeout  lib.Duration `json:"fetchTimeout"`
	Neo4jURI      string       `json:"neo4jUri"`
	Neo4jDatabase string       `json:"neo4jDatabase"`
	Neo4jUsername string       `json:"neo4jUsername"`
	Neo4jPassword string       `json:"neo4jPassword"`
}

// HTTPConfig governs the web server.
type HTTPConfig struct {
	Address         string       `json:"address"`
	MaxConnections  int          `json:"maxConnections"`
	ReadTimeout     lib.Duration `json:"readTimeout"`
	WriteTimeout    lib.Duration `json:"writeTimeout"`
	ShutdownTimeout lib.Duration `json:"shutdownTimeout"`

	// WebsocketWriteTimeout bounds each update written to a browser. A client
	// that cannot take an update in time is dropped.
	WebsocketWriteTimeout lib.Duration `json:"websocketWriteTimeout"`
	Title                 string       `json:"title"`
}

// GRPCConfig governs the gRPC server, an empty Address disables it.
type GRPCConfig struct {
	Address string `json:"address"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // text|json
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Dataset: DatasetConfig{
			FetchTimeout: lib.DurationFrom(10 * time.Second),
		},
		HTTP: HTTPConfig{
			Address:               "127.0.0.1:8080",
			MaxConnections:        64,
			ReadTimeout:           lib.DurationFrom(10 * time.Second),
			WriteTimeout:          lib.DurationFrom(15 * time.Second),
			ShutdownTimeout:       lib.DurationFrom(10 * time.Second),
			WebsocketWriteTimeout: lib.DurationFrom(lib.DefaultWriteTimeout),
			Title:                 "bmmap",
		},
		GRPC: GRPCConfig{
			Address: "127.0.0.1:50051",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load starts from Default, applies the JSON file at path when path is not
// empty, then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Dataset.applyDefaultSource()
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	// A source picked in the environment replaces every source from the file.
	sourceKeys := []string{"BMMAP_DATASET", "BMMAP_DATASET_URL", "BMMAP_NEO4J_URI"}
	for _, key := range sourceKeys {
		if os.Getenv(key) != "" {
			cfg.Dataset.ClearSource()
			break
		}
	}
	setString(&cfg.Dataset.Path, "BMMAP_DATASET")
	setString(&cfg.Dataset.URL, "BMMAP_DATASET_URL")
	setString(&cfg.Dataset.Neo4jURI, "BMMAP_NEO4J_URI")
	setString(&cfg.Dataset.Neo4jDatabase, "BMMAP_NEO4J_DATABASE")
	setString(&cfg.Dataset.Neo4jUsername, "BMMAP_NEO4J_USERNAME")
	setString(&cfg.Dataset.Neo4jPassword, "BMMAP_NEO4J_PASSWORD")
	setString(&cfg.HTTP.Address, "BMMAP_HTTP_ADDRESS")
	setString(&cfg.HTTP.Title, "BMMAP_TITLE")
	setString(&cfg.GRPC.Address, "BMMAP_GRPC_ADDRESS")
	setString(&cfg.Logging.Level, "BMMAP_LOG_LEVEL")
	setString(&cfg.Logging.Format, "BMMAP_LOG_FORMAT")

	if v := os.Getenv("BMMAP_HTTP_MAX_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BMMAP_HTTP_MAX_CONNECTIONS: %w", err)
		}
		cfg.HTTP.MaxConnections = n
	}

	durations := []struct {
		key string
		dst *lib.Duration
	}{
		{"BMMAP_FETCH_TIMEOUT", &cfg.Dataset.FetchTimeout},
		{"BMMAP_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"BMMAP_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"BMMAP_HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"BMMAP_WS_WRITE_TIMEOUT", &cfg.HTTP.WebsocketWriteTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		d.dst.Duration = parsed
	}

	return nil
}

// ClearSource forgets Path, URL and Neo4jURI so a new source can be set.
func (d *DatasetConfig) ClearSource() {
	d.Path, d.URL, d.Neo4jURI = "", "", ""
}

// HasSource reports whether any of Path, URL or Neo4jURI is set.
func (d DatasetConfig) HasSource() bool {
	return d.Path != "" || d.URL != "" || d.Neo4jURI != ""
}

func (d *DatasetConfig) applyDefaultSource() {
	if !d.HasSource() {
		d.Path = DefaultDatasetPath
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports values no component can work with.
func (c Config) Validate() error {
	if !c.Dataset.HasSource() {
		return fmt.Errorf("no dataset source configured")
	}
	if c.HTTP.MaxConnections < 0 {
		return fmt.Errorf("http max connections %d is negative", c.HTTP.MaxConnections)
	}
	if _, err := lib.ParseSLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	return nil
}
