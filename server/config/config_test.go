package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	require := require.New(t)

	cfg, err := Default()
	require.NoError(err)
	require.Equal(":2323", cfg.Server.Address)
	require.True(filepath.IsAbs(cfg.Server.DataDir))
	require.Equal("NOTICE", cfg.Logging.Level)
	require.Equal(BackendText, cfg.UserDB.Backend)
	require.Equal(":6543", cfg.Metrics.Address)
	require.False(cfg.Metrics.Enable)
}

func TestLoad(t *testing.T) {
	require := require.New(t)

	const doc = `
[Server]
Address = "127.0.0.1:9000"
DataDir = "/var/lib/goparley"

[Logging]
File = "server.log"
Level = "DEBUG"

[UserDB]
Backend = "bolt"

[Metrics]
Enable = true
Address = "127.0.0.1:7000"
`
	cfg, err := Load([]byte(doc))
	require.NoError(err)
	require.Equal("127.0.0.1:9000", cfg.Server.Address)
	require.Equal("/var/lib/goparley/server.log", cfg.Logging.File)
	require.Equal(BackendBolt, cfg.UserDB.Backend)
	require.Equal("/var/lib/goparley/users.db", cfg.UserDB.BoltFile)
	require.True(cfg.Metrics.Enable)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load([]byte("[Server]\nAdress = \":9\"\n"))
	require.Error(t, err)
}

func TestValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := Load([]byte("[Server]\nDataDir = \"relative/dir\"\n"))
	assert.Error(err)

	_, err = Load([]byte("[UserDB]\nBackend = \"ldap\"\n"))
	assert.Error(err)
}

func TestRelativePathsResolveUnderDataDir(t *testing.T) {
	require := require.New(t)

	cfg, err := Load([]byte("[Server]\nDataDir = \"/srv/chat\"\n"))
	require.NoError(err)
	require.Equal("/srv/chat/users.txt", cfg.UserDB.UsersFile)
	require.Equal("/srv/chat/users.db", cfg.UserDB.BoltFile)
}
