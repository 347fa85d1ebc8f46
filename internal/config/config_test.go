package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Submissions.PendingLimit)
	assert.EqualValues(t, 5*1024*1024, cfg.Uploads.MaxSizeBytes)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 15*time.Minute, cfg.S3.PresignExpiry)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
database:
  driver: postgres
  dsn: postgres://localhost/feedback
jwt:
  secret: from-file
  expiration: 30m
submissions:
  pending_limit: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 5, cfg.Submissions.PendingLimit)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database:    DatabaseConfig{Driver: DriverMemory},
		JWT:         JWTConfig{Secret: "s"},
		Submissions: SubmissionsConfig{PendingLimit: 3},
		Uploads:     UploadsConfig{MaxSizeBytes: 1},
	}
	require.NoError(t, valid.Validate())

	noSecret := valid
	noSecret.JWT.Secret = ""
	assert.ErrorContains(t, noSecret.Validate(), "jwt.secret")

	badDriver := valid
	badDriver.Database.Driver = "cassandra"
	assert.ErrorContains(t, badDriver.Validate(), "unknown database.driver")

	noDSN := valid
	noDSN.Database.Driver = DriverPostgres
	assert.ErrorContains(t, noDSN.Validate(), "database.dsn")

	zeroLimit := valid
	zeroLimit.Submissions.PendingLimit = 0
	assert.ErrorContains(t, zeroLimit.Validate(), "pending_limit")
}
