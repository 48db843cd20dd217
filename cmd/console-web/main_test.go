package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/railconsole/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	cmd := newRootCommand(ctx)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, context.Background(), "--version")
	require.NoError(t, err)
	assert.Equal(t, appName+" v"+appVersion+"\n", out)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing_secret", nil},
		{"short_secret", []string{"--session-secret", "short"}},
		{"relative_server_url", []string{"--session-secret", testSecret, "--server-url", "/api/v1"}},
		{"bad_login_path", []string{"--session-secret", testSecret, "--login-path", "login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, context.Background(), tt.args...)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestRejectsArguments(t *testing.T) {
	_, err := execute(t, context.Background(), "extra")
	assert.Error(t, err)
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := execute(t, ctx,
		"--listen", "127.0.0.1:0",
		"--session-secret", testSecret,
		"--metrics",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "starting web console")
	assert.Contains(t, out, appName+" stopped")
}

func TestRunRejectsUnknownLoginRoute(t *testing.T) {
	_, err := execute(t, context.Background(),
		"--listen", "127.0.0.1:0",
		"--session-secret", testSecret,
		"--login-path", "/signin",
	)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "login path /signin")
}
