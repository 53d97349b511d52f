package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atinyakov/go-shortlinks/internal/config"
)

var envKeys = []string{
	"SERVER_ADDRESS", "BASE_URL", "DATABASE_DSN", "ENABLE_PPROF", "ENABLE_HTTPS", "CONFIG",
	"TRUSTED_SUBNET", "GRPC_PORT", "ADMIN_SECRET", "CODE_LENGTH", "SITE_URL", "LOG_LEVEL",
}

// clearEnv blanks every variable Parse reads; blank values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		opts, err := config.Parse(nil)
		require.NoError(t, err)
		require.Equal(t, "localhost:8080", opts.Port)
		require.Equal(t, "http://localhost:8080", opts.ResultHostname)
		require.Equal(t, "", opts.DatabaseDSN)
		require.Equal(t, 6, opts.CodeLength)
		require.Equal(t, "info", opts.LogLevel)
		require.Zero(t, opts.GRPCPort)
		require.False(t, opts.EnableHTTPS)
		require.False(t, opts.EnablePprof)
	})

	t.Run("flags", func(t *testing.T) {
		clearEnv(t)

		opts, err := config.Parse([]string{"-a", ":9000", "-d", "file:links.db", "-l", "8", "-g", "3200", "-t", "10.0.0.0/8", "-s"})
		require.NoError(t, err)
		require.Equal(t, ":9000", opts.Port)
		require.Equal(t, "file:links.db", opts.DatabaseDSN)
		require.Equal(t, 8, opts.CodeLength)
		require.Equal(t, 3200, opts.GRPCPort)
		require.Equal(t, "10.0.0.0/8", opts.TrustedSubnet)
		require.True(t, opts.EnableHTTPS)
	})

	t.Run("env overrides flags", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SERVER_ADDRESS", "127.0.0.1:9999")
		t.Setenv("BASE_URL", "http://example.com")
		t.Setenv("ENABLE_HTTPS", "true")
		t.Setenv("TRUSTED_SUBNET", "192.168.0.0/24")
		t.Setenv("CODE_LENGTH", "10")
		t.Setenv("SITE_URL", "https://blog.example.com")

		opts, err := config.Parse([]string{"-a", ":9000", "-l", "8"})
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1:9999", opts.Port)
		require.Equal(t, "http://example.com", opts.ResultHostname)
		require.True(t, opts.EnableHTTPS)
		require.Equal(t, "192.168.0.0/24", opts.TrustedSubnet)
		require.Equal(t, 10, opts.CodeLength)
		require.Equal(t, "https://blog.example.com", opts.SiteURL)
	})

	t.Run("bad env values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GRPC_PORT", "grpc")

		_, err := config.Parse(nil)
		require.ErrorContains(t, err, "GRPC_PORT")

		t.Setenv("GRPC_PORT", "")
		t.Setenv("ENABLE_PPROF", "maybe")
		_, err = config.Parse(nil)
		require.ErrorContains(t, err, "ENABLE_PPROF")
	})

	t.Run("unknown flag", func(t *testing.T) {
		clearEnv(t)

		_, err := config.Parse([]string{"-f", "/tmp/storage.json"})
		require.Error(t, err)
	})

	t.Run("config file below flags and env", func(t *testing.T) {
		clearEnv(t)

		cfgPath := filepath.Join(t.TempDir(), "cfg.json")
		content := []byte(`{
			"server_address": "10.0.0.1:8081",
			"base_url": "http://testhost",
			"database_dsn": "postgres://test",
			"enable_pprof": true,
			"trusted_subnet": "10.10.0.0/16",
			"admin_secret": "from-file",
			"code_length": 7
		}`)
		require.NoError(t, os.WriteFile(cfgPath, content, 0o644))

		t.Setenv("CONFIG", cfgPath)
		t.Setenv("ADMIN_SECRET", "from-env")

		opts, err := config.Parse([]string{"-b", "http://from-flag"})
		require.NoError(t, err)
		require.Equal(t, cfgPath, opts.Config)
		require.Equal(t, "10.0.0.1:8081", opts.Port)
		require.Equal(t, "http://from-flag", opts.ResultHostname)
		require.Equal(t, "postgres://test", opts.DatabaseDSN)
		require.True(t, opts.EnablePprof)
		require.Equal(t, "10.10.0.0/16", opts.TrustedSubnet)
		require.Equal(t, "from-env", opts.AdminSecret)
		require.Equal(t, 7, opts.CodeLength)
		require.Equal(t, "info", opts.LogLevel, "keys missing from the file keep their defaults")
	})

	t.Run("missing config file", func(t *testing.T) {
		clearEnv(t)

		_, err := config.Parse([]string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
	})

	t.Run("dotenv", func(t *testing.T) {
		clearEnv(t)
		// godotenv never overrides variables that exist, even blank ones
		require.NoError(t, os.Unsetenv("ADMIN_SECRET"))
		require.NoError(t, os.WriteFile(".env", []byte("ADMIN_SECRET=dotenv-secret\n"), 0o600))

		opts, err := config.Parse(nil)
		require.NoError(t, err)
		require.Equal(t, "dotenv-secret", opts.AdminSecret)
	})
}
