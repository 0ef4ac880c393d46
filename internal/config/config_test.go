package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT",
		"MONGO_URI",
		"TRACKER_SERVER_PORT",
		"TRACKER_DATABASE_URI",
		"TRACKER_DATABASE_DRIVER",
		"TRACKER_SERVER_ERRORSTATUS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, "views", cfg.Server.ViewsDir)
	assert.Equal(t, "public", cfg.Server.PublicDir)
	assert.Equal(t, "legacy", cfg.Server.ErrorStatus)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "exercise_tracker", cfg.Database.Name)
	assert.Equal(t, 10*time.Second, cfg.Database.Timeout)
	assert.Equal(t, "tracker_users", cfg.DynamoDB.UsersTable)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)

	// mongo without a connection string cannot start
	assert.Error(t, cfg.Validate())
}

func TestLoadEnvAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	assert.NoError(t, cfg.Validate())

	t.Setenv("TRACKER_SERVER_PORT", "9090")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadPrefixedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRACKER_DATABASE_DRIVER", " SQLite ")
	t.Setenv("TRACKER_SERVER_ERRORSTATUS", "strict")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "strict", cfg.Server.ErrorStatus)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.Server.Port = 3000
		cfg.Server.ErrorStatus = "legacy"
		cfg.Database.Driver = DriverSQLite
		return cfg
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Server.ErrorStatus = "loud"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.Driver = DriverDynamoDB
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	const (
		keyNew    = "TRACKER_DOTENV_TEST_NEW"
		keyQuoted = "TRACKER_DOTENV_TEST_QUOTED"
		keyKept   = "TRACKER_DOTENV_TEST_KEPT"
	)
	t.Setenv(keyKept, "from-env")
	t.Cleanup(func() {
		_ = os.Unsetenv(keyNew)
		_ = os.Unsetenv(keyQuoted)
	})

	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n" +
		keyNew + "=plain\n" +
		"export " + keyQuoted + "=\"quoted value\"\n" +
		keyKept + "=from-file\n" +
		"not a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loadDotEnv(path)

	assert.Equal(t, "plain", os.Getenv(keyNew))
	assert.Equal(t, "quoted value", os.Getenv(keyQuoted))
	assert.Equal(t, "from-env", os.Getenv(keyKept))

	// a missing file is ignored
	loadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
