// Package config builds the run configuration once at startup.
//
// Sources are layered, later ones winning:
//  1. Defaults
//  2. YAML file (pypeep.yaml in the working directory, or an explicit path)
//  3. Environment (PYPEEP_DB_PATH, PYPEEP_INSTALLER), after loading an optional .env file
//  4. Command-line flags, applied by the CLI through Override
//
// Nothing below the CLI reads the environment; the resulting Config is passed
// down explicitly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvDatabase  = "PYPEEP_DB_PATH"
	EnvInstaller = "PYPEEP_INSTALLER"
)

// DefaultFile is the config file looked up when no path is given.
const DefaultFile = "pypeep.yaml"

// DefaultEnvFile is the dotenv file loaded when present.
const DefaultEnvFile = ".env"

// Config holds everything a run needs from its environment.
type Config struct {
	// Database is the store location: a SQLite path or a postgres:// URI.
	Database string `yaml:"database"`

	// Installer is the package manager binary, e.g. "uv".
	Installer string `yaml:"installer"`
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	// Path is the YAML file. Empty means DefaultFile if it exists.
	Path string

	// EnvFile is the dotenv file. Empty means DefaultEnvFile if it exists.
	EnvFile string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{Installer: "uv"}
}

// Load layers defaults, the YAML file and the environment.
// An explicitly named file that does not exist is an error; the default
// files are optional.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg.loadEnv()
	return cfg, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.Override(fileCfg)
	return nil
}

func (c *Config) loadEnv() {
	c.Override(Config{
		Database:  strings.TrimSpace(os.Getenv(EnvDatabase)),
		Installer: strings.TrimSpace(os.Getenv(EnvInstaller)),
	})
}

// Override replaces every field of c that is set in o.
func (c *Config) Override(o Config) {
	if o.Database != "" {
		c.Database = o.Database
	}
	if o.Installer != "" {
		c.Installer = o.Installer
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database location is required (set --db, %s, or database in %s)", EnvDatabase, DefaultFile)
	}
	if strings.TrimSpace(c.Installer) == "" {
		return errors.New("installer binary is required")
	}
	return nil
}
