package main

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestConfig_LoadFile(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		c := NewConfig()

		err := c.LoadFile(afero.NewMemMapFs(), "/nope/config.toml")

		require.NoError(t, err)
		require.Equal(t, defaultServer, c.Server)
		require.Equal(t, StorageFile, c.Storage)
	})

	t.Run("file overrides only set options", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		err := afero.WriteFile(fs, "/config.toml", []byte(`
server = "https://summarizer.example.com"
storage = "redis"
redis_addr = "redis:6379"
`), 0o600)
		require.NoError(t, err)
		c := NewConfig()

		err = c.LoadFile(fs, "/config.toml")

		require.NoError(t, err)
		require.Equal(t, "https://summarizer.example.com", c.Server)
		require.Equal(t, StorageRedis, c.Storage)
		require.Equal(t, "redis:6379", c.RedisAddr)
		require.Equal(t, defaultProfile, c.Profile)
		require.Equal(t, defaultLogLevel, c.LogLevel)
	})

	t.Run("invalid toml", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/config.toml", []byte(`server = `), 0o600))

		err := NewConfig().LoadFile(fs, "/config.toml")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid config file")
	})
}

func TestConfig_LoadEnv(t *testing.T) {
	env := map[string]string{
		"YTSUM_SERVER":       "http://api:8000",
		"YTSUM_STORAGE":      "memory",
		"YTSUM_STORAGE_PATH": "/tmp/s.json",
		"YTSUM_PROFILE":      "work",
		"YTSUM_LOG_LEVEL":    "debug",
	}
	c := NewConfig()

	c.LoadEnv(func(key string) string { return env[key] })

	require.Equal(t, "http://api:8000", c.Server)
	require.Equal(t, StorageMemory, c.Storage)
	require.Equal(t, "/tmp/s.json", c.StoragePath)
	require.Equal(t, "work", c.Profile)
	require.Equal(t, "debug", c.LogLevel)
	require.Equal(t, defaultRedisAddr, c.RedisAddr, "unset env var should keep default")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) { c.StoragePath = "/s.json" },
		},
		{
			name:    "unknown storage",
			modify:  func(c *Config) { c.Storage = "sqlite" },
			wantErr: "unknown storage",
		},
		{
			name: "file storage without path",
			modify: func(c *Config) {
				c.Storage = StorageFile
				c.StoragePath = ""
			},
			wantErr: "storage path is required",
		},
		{
			name: "memory storage without path",
			modify: func(c *Config) {
				c.Storage = StorageMemory
				c.StoragePath = ""
			},
		},
		{
			name: "empty server",
			modify: func(c *Config) {
				c.StoragePath = "/s.json"
				c.Server = ""
			},
			wantErr: "server is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.modify(c)

			err := c.Validate()

			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func Test_profilePath(t *testing.T) {
	require.Equal(t, "/cfg/storage.json", profilePath("/cfg/storage.json", "default"))
	require.Equal(t, "/cfg/storage.json", profilePath("/cfg/storage.json", ""))
	require.Equal(t, "/cfg/storage.work.json", profilePath("/cfg/storage.json", "work"))
	require.Equal(t, "/cfg/storage.work", profilePath("/cfg/storage", "work"))
}
