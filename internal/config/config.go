package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar switches development mode on when set to "development".
const EnvVar = "FUNCMAP_ENV"

// DefaultPort is used when neither the config nor PORT sets one.
const DefaultPort = 8080

// MemoryPath selects the in-memory store.
const MemoryPath = ":memory:"

// Config represents the main configuration structure
type Config struct {
	// Development enables the encoder self-check.
	Development bool `yaml:"development" json:"development"`

	Server ServerConfig `yaml:"server" json:"server"`
	Store  StoreConfig  `yaml:"store" json:"store"`

	// Maps preloads enriched source maps into the store, name -> file path.
	Maps map[string]string `yaml:"maps,omitempty" json:"maps,omitempty"`

	Parser *ParserConfig `yaml:"parser,omitempty" json:"parser,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

// StoreConfig configures where enriched maps are kept.
type StoreConfig struct {
	// Path is a SQLite database file, or ":memory:".
	Path string `yaml:"path" json:"path"`
}

// ParserConfig selects the external parser used to produce descriptors.
type ParserConfig struct {
	Type string `yaml:"type" json:"type"` // "wasm" or "mcp"

	// Wasm fields
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// MCP fields
	Server *McpServerConfig `yaml:"server,omitempty" json:"server,omitempty"`
	Tool   string           `yaml:"tool,omitempty" json:"tool,omitempty"`
}

// McpServerConfig describes how to reach an MCP server.
type McpServerConfig struct {
	Type string `yaml:"type" json:"type"` // "stdio", "http", or "sse"

	// Stdio fields
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Cwd     string            `yaml:"cwd,omitempty" json:"cwd,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// HTTP/SSE fields
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: DefaultPort},
		Store:  StoreConfig{Path: MemoryPath},
	}
}

// Load reads and parses the configuration file. JSON files are accepted too.
// Environment overrides are applied after parsing.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := applyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Store.Path == "" {
		config.Store.Path = MemoryPath
	}
	if config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// FromEnv returns the default configuration with environment overrides.
func FromEnv() (*Config, error) {
	config := Default()
	if err := applyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}
	if strings.EqualFold(os.Getenv(EnvVar), "development") {
		config.Development = true
	}
	return nil
}

// validate checks if the configuration is valid
func validate(config *Config) error {
	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", config.Server.Port)
	}

	for name, path := range config.Maps {
		if path == "" {
			return fmt.Errorf("map %q: path is required", name)
		}
	}

	if config.Parser == nil {
		return nil
	}

	switch config.Parser.Type {
	case "wasm":
		if config.Parser.Path == "" {
			return fmt.Errorf("parser: path is required for wasm type")
		}
	case "mcp":
		if config.Parser.Server == nil {
			return fmt.Errorf("parser: server is required for mcp type")
		}
		if err := validateServer(*config.Parser.Server); err != nil {
			return fmt.Errorf("parser: %w", err)
		}
	default:
		return fmt.Errorf("parser: invalid type %q (must be wasm or mcp)", config.Parser.Type)
	}

	return nil
}

func validateServer(server McpServerConfig) error {
	switch server.Type {
	case "stdio":
		if server.Command == "" {
			return fmt.Errorf("command is required for stdio type")
		}
	case "http", "sse":
		if server.URL == "" {
			return fmt.Errorf("url is required for %s type", server.Type)
		}
	default:
		return fmt.Errorf("invalid server type %q (must be stdio, http, or sse)", server.Type)
	}
	return nil
}
