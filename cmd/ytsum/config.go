package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/nkiryanov/ytsummarizer/internal/logger"
)

// Storage kinds session tokens may be kept in
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

const (
	defaultServer    = "http://localhost:8000"
	defaultStorage   = StorageFile
	defaultRedisAddr = "localhost:6379"
	defaultProfile   = "default"
	defaultLogLevel  = logger.LevelInfo
)

type Config struct {
	// Base URL of the summarizer API
	Server string `toml:"server"`

	// Where session tokens are stored: memory, file or redis
	Storage     string `toml:"storage"`
	StoragePath string `toml:"storage_path"`
	RedisAddr   string `toml:"redis_addr"`

	// Sessions of different profiles do not interfere
	Profile string `toml:"profile"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// Directory the CLI keeps its files in: ~/.config/ytsum
func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ytsum"), nil
}

func NewConfig() *Config {
	c := &Config{
		Server:    defaultServer,
		Storage:   defaultStorage,
		RedisAddr: defaultRedisAddr,
		Profile:   defaultProfile,
		LogLevel:  defaultLogLevel,
	}

	if dir, err := configDir(); err == nil {
		c.StoragePath = filepath.Join(dir, "storage.json")
		c.LogFile = filepath.Join(dir, "ytsum.log")
	}

	return c
}

// Default location of the config file
func DefaultConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "config.toml")
}

// Load options set in TOML file. Missing file is not an error.
func (c *Config) LoadFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	}

	// Decode over defaults, so only options set in file are changed
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"YTSUM_SERVER":       setString(&c.Server),
		"YTSUM_STORAGE":      setString(&c.Storage),
		"YTSUM_STORAGE_PATH": setString(&c.StoragePath),
		"YTSUM_REDIS_ADDR":   setString(&c.RedisAddr),
		"YTSUM_PROFILE":      setString(&c.Profile),
		"YTSUM_LOG_LEVEL":    setString(&c.LogLevel),
		"YTSUM_LOG_FILE":     setString(&c.LogFile),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageFile, StorageRedis:
	default:
		return fmt.Errorf("unknown storage %q, use one of: memory, file, redis", c.Storage)
	}

	if c.Storage == StorageFile && c.StoragePath == "" {
		return errors.New("storage path is required for file storage")
	}
	if c.Server == "" {
		return errors.New("server is required")
	}
	return nil
}
