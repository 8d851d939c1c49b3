package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowbreak/focusagent/internal/store"
)

// Config holds all application configuration.
type Config struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Store        string        `json:"store"`
	DataDir      string        `json:"-"`
	WriteTimeout time.Duration `json:"-"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	return Config{
		Host:         "127.0.0.1",
		Port:         8001,
		Store:        store.KindMemory,
		DataDir:      filepath.Join(home, ".focusagent"),
		WriteTimeout: 30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	if err := applyFlags(&cfg, fs); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file and
// env, without parsing CLI flags.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("FOCUSAGENT_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fileConfig is the on-disk form of the settings that may be
// set from a file.
type fileConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	Store        string `json:"store" yaml:"store"`
	WriteTimeout string `json:"write_timeout" yaml:"write_timeout"`
}

// readConfigFile reads config.json from dir, falling back to
// config.yaml. Neither file existing is not an error.
func readConfigFile(dir string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err == nil {
		if err := json.Unmarshal(data, &file); err != nil {
			return file, fmt.Errorf("parsing config: %w", err)
		}
		return file, nil
	}
	if !os.IsNotExist(err) {
		return file, err
	}

	data, err = os.ReadFile(filepath.Join(dir, "config.yaml"))
	if os.IsNotExist(err) {
		return file, nil
	}
	if err != nil {
		return file, err
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parsing config: %w", err)
	}
	return file, nil
}

func (c *Config) loadFile() error {
	file, err := readConfigFile(c.DataDir)
	if err != nil {
		return err
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port != 0 {
		c.Port = file.Port
	}
	if file.Store != "" {
		c.Store = file.Store
	}
	if file.WriteTimeout != "" {
		d, err := time.ParseDuration(file.WriteTimeout)
		if err != nil {
			return fmt.Errorf("parsing write_timeout: %w", err)
		}
		c.WriteTimeout = d
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("AGENT_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("AGENT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGENT_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("AGENT_STORE"); v != "" {
		c.Store = v
	}
	return nil
}

// Validate reports settings that cannot be served.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Store {
	case store.KindMemory, store.KindSQLite, store.KindBadger:
	default:
		return fmt.Errorf(
			"unknown store %q: must be %s, %s or %s",
			c.Store, store.KindMemory, store.KindSQLite, store.KindBadger,
		)
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8001, "Port to listen on")
	fs.String("store", store.KindMemory,
		"Session store backend (memory, sqlite or badger)")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var err error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			cfg.Port, err = strconv.Atoi(f.Value.String())
		case "store":
			cfg.Store = f.Value.String()
		}
	})
	return err
}
