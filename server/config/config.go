// Package config provides the goparley server configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	defaultAddress   = ":2323"
	defaultLogLevel  = "NOTICE"
	defaultUsersFile = "users.txt"
	defaultBoltFile  = "users.db"
	defaultMetrics   = ":6543"

	// BackendText is the plain text file credential store.
	BackendText = "text"

	// BackendBolt is the boltdb credential store.
	BackendBolt = "bolt"
)

// Server is the top-level server configuration.
type Server struct {
	// Address is the TCP address to listen on.
	Address string

	// DataDir is the directory relative store paths resolve under.
	DataDir string
}

// Logging is the logging configuration.
type Logging struct {
	// Disable disables logging entirely.
	Disable bool

	// File is the log file; an empty string logs to stdout.
	File string

	// Level is one of ERROR, WARNING, NOTICE, INFO, DEBUG.
	Level string
}

// UserDB is the credential store configuration.
type UserDB struct {
	// Backend selects the store implementation ("text" or "bolt").
	Backend string

	// UsersFile is the path of the text backend's store.
	UsersFile string

	// BoltFile is the path of the bolt backend's database.
	BoltFile string
}

// Metrics configures the optional prometheus endpoint.
type Metrics struct {
	Enable  bool
	Address string
}

// Config is the goparley server configuration.
type Config struct {
	Server  Server
	Logging Logging
	UserDB  UserDB
	Metrics Metrics
}

// FixupAndValidate applies defaults and validates the configuration.
func (c *Config) FixupAndValidate() error {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.DataDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("config: unable to resolve data dir: %w", err)
		}
		c.Server.DataDir = wd
	}
	if !filepath.IsAbs(c.Server.DataDir) {
		return fmt.Errorf("config: DataDir must be absolute: %s", c.Server.DataDir)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		c.Logging.File = filepath.Join(c.Server.DataDir, c.Logging.File)
	}

	switch c.UserDB.Backend {
	case "":
		c.UserDB.Backend = BackendText
	case BackendText, BackendBolt:
	default:
		return fmt.Errorf("config: unknown userdb backend: %s", c.UserDB.Backend)
	}
	if c.UserDB.UsersFile == "" {
		c.UserDB.UsersFile = defaultUsersFile
	}
	if !filepath.IsAbs(c.UserDB.UsersFile) {
		c.UserDB.UsersFile = filepath.Join(c.Server.DataDir, c.UserDB.UsersFile)
	}
	if c.UserDB.BoltFile == "" {
		c.UserDB.BoltFile = defaultBoltFile
	}
	if !filepath.IsAbs(c.UserDB.BoltFile) {
		c.UserDB.BoltFile = filepath.Join(c.Server.DataDir, c.UserDB.BoltFile)
	}

	if c.Metrics.Address == "" {
		c.Metrics.Address = defaultMetrics
	}
	return nil
}

// Load parses a configuration from b.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: unknown keys: %v", undecoded)
	}
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads and parses the configuration at path.
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

// Default returns the configuration used when no config file is given.
func Default() (*Config, error) {
	cfg := new(Config)
	if err := cfg.FixupAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
