package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG", "DATABASE_DSN", "BASE_URL", "ADMIN_SECRET", "CODE_LENGTH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestCommands_LinkLifecycle(t *testing.T) {
	clearEnv(t)
	dsn := "file:" + filepath.Join(t.TempDir(), "ctl.db")

	out, err := run(t, "-d", dsn, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	out, err = run(t, "-d", dsn, "-b", "https://sho.rt", "create", "https://example.com/docs", "--code", "docs")
	require.NoError(t, err)
	assert.Contains(t, out, "Code: docs")
	assert.Contains(t, out, "Short URL: https://sho.rt/docs")

	out, err = run(t, "-d", dsn, "--code-length", "8", "create", "https://example.com/blog")
	require.NoError(t, err)
	assert.Regexp(t, `Code: [0-9a-zA-Z]{8}\n`, out)

	_, err = run(t, "-d", dsn, "create", "https://example.com/other", "--code", "docs")
	assert.ErrorIs(t, err, storage.ErrCodeTaken)

	_, err = run(t, "-d", dsn, "create", "javascript:alert(1)")
	assert.ErrorIs(t, err, service.ErrInvalidURL)

	out, err = run(t, "-d", dsn, "list", "--orderby", "short_code", "--order", "asc")
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com/docs")
	assert.Contains(t, out, "https://example.com/blog")
	assert.Contains(t, out, "Page 1 of 1, 2 links")

	out, err = run(t, "-d", dsn, "delete", "docs", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, `No short link "missing"`)
	assert.Contains(t, out, "Deleted 1")

	out, err = run(t, "-d", dsn, "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "https://example.com/docs")
	assert.Contains(t, out, "Page 1 of 1, 1 links")
}

func TestCommands_RequireDSN(t *testing.T) {
	clearEnv(t)

	for _, args := range [][]string{
		{"create", "https://example.com"},
		{"list"},
		{"delete", "1"},
		{"migrate"},
	} {
		_, err := run(t, args...)
		assert.ErrorIs(t, err, errNoDSN, strings.Join(args, " "))
	}
}

func TestTokenCmd(t *testing.T) {
	clearEnv(t)

	_, err := run(t, "token")
	assert.ErrorIs(t, err, service.ErrEmptySecret)

	out, err := run(t, "-k", "ctl-secret", "token", "--subject", "ops", "--cap", "manage_options,edit_posts")
	require.NoError(t, err)

	auth, err := service.NewAdminAuth("ctl-secret")
	require.NoError(t, err)

	claims, err := auth.ParseRawJWT(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.Can(service.CapManageOptions))
	assert.True(t, claims.Can("edit_posts"))
}
