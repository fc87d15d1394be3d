package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.toml")
}

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(missingPath(t))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.TokenTTL())
	assert.Equal(t, 8, cfg.Auth.PasswordMinLength)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "eventhub.activity.persist", cfg.RabbitMQ.ActivityQueue)
	assert.Equal(t, 60*time.Second, cfg.PrincipalTTL())
}

func TestLoadFileReadsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
name = "eventhub-test"
port = 9090

[auth]
secret_key = "from-file"
access_token_expire_minutes = 15

[database]
driver = "postgres"
host = "db"
port = 5432
user = "app"
password = "pw"
db = "events"
params = "sslmode=disable"

[images]
allowed_hosts = ["img.example.com"]
require_https = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eventhub-test", cfg.App.Name)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL())
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver())
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=events sslmode=disable", cfg.DatabaseDSN())
	assert.Equal(t, []string{"img.example.com"}, cfg.Images.AllowedHosts)
	assert.True(t, cfg.Images.RequireHTTPS)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "45")
	t.Setenv("FRONTEND_URL", "https://app.example.com/")
	t.Setenv("ADMIN_URL", "https://admin.example.com")
	t.Setenv("IMAGE_ALLOWED_HOSTS", "a.example.com, b.example.com")

	cfg, err := LoadFile(missingPath(t))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.SecretKey)
	assert.Equal(t, 45*time.Minute, cfg.TokenTTL())
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins())
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Images.AllowedHosts)
}

func TestSecretKeyWinsOverJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SECRET_KEY", "preferred")

	cfg, err := LoadFile(missingPath(t))
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.Auth.SecretKey)
}

func TestDatabaseURLSelectsDriver(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver string
		wantDSN    string
	}{
		{
			url:        "postgres://u:p@db:5432/events?sslmode=disable",
			wantDriver: DriverPostgres,
			wantDSN:    "postgres://u:p@db:5432/events?sslmode=disable",
		},
		{
			url:        "postgresql://u:p@db/events",
			wantDriver: DriverPostgres,
			wantDSN:    "postgresql://u:p@db/events",
		},
		{
			url:        "mysql://u:p@tcp(db:3306)/events?parseTime=true",
			wantDriver: DriverMySQL,
			wantDSN:    "u:p@tcp(db:3306)/events?parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.wantDriver+" "+tt.url, func(t *testing.T) {
			t.Setenv("DATABASE_URL", tt.url)
			cfg, err := LoadFile(missingPath(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, cfg.DatabaseDriver())
			assert.Equal(t, tt.wantDSN, cfg.DatabaseDSN())
		})
	}
}

func TestMySQLDSNFromFields(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.User = "root"
	cfg.Database.Password = "secret"
	cfg.Database.Host = "127.0.0.1"
	cfg.Database.Port = 3306
	cfg.Database.DB = "eventhub"

	assert.Equal(t, "root:secret@tcp(127.0.0.1:3306)/eventhub?parseTime=true&loc=UTC&charset=utf8mb4", cfg.DatabaseDSN())
}

func TestInvalidValuesRejected(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "sqlite")
		_, err := LoadFile(missingPath(t))
		assert.Error(t, err)
	})
	t.Run("token lifetime", func(t *testing.T) {
		t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "0")
		_, err := LoadFile(missingPath(t))
		assert.Error(t, err)
	})
}

func TestMalformedIntegersFallBack(t *testing.T) {
	t.Setenv("APP_PORT", "not-a-number")
	cfg, err := LoadFile(missingPath(t))
	require.NoError(t, err)
	assert.NotZero(t, cfg.App.Port)
}

func TestDefaultSecretRejectedOutsideDevelopment(t *testing.T) {
	tests := map[string]struct {
		env     string
		secret  string
		wantErr bool
	}{
		"dev keeps default":        {env: "dev"},
		"test keeps default":       {env: "test"},
		"production needs secret":  {env: "production", wantErr: true},
		"staging needs secret":     {env: "staging", wantErr: true},
		"production with a secret": {env: "production", secret: "s3cr3t"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.env)
			if tt.secret != "" {
				t.Setenv("SECRET_KEY", tt.secret)
			}
			_, err := LoadFile(missingPath(t))
			if tt.wantErr {
				assert.ErrorContains(t, err, "secret key must be set")
				return
			}
			assert.NoError(t, err)
		})
	}
}
