package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/citadel-abi/errors"
	"github.com/wippyai/citadel-abi/wallet"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, wallet.Mainnet, cfg.NetworkValue())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().MaxHandles, cfg.MaxHandles)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "citadel.toml", `
network = "regtest"
max_handles = 64

[log]
level = "debug"
encoding = "console"

[transport]
backoff_initial_ms = 50
backoff_max_ms = 400
max_attempts = 2
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, wallet.Regtest, cfg.NetworkValue())
	assert.Equal(t, 64, cfg.MaxHandles)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, int64(50), cfg.Transport.InitialDelayMS)
	assert.Equal(t, 2, cfg.Transport.MaxAttempts)
	// untouched keys keep their defaults
	assert.Equal(t, Default().Transport.MaxMsgBytes, cfg.Transport.MaxMsgBytes)
	assert.Equal(t, Default().Serve, cfg.Serve)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "citadel.yaml", `
network: signet
log:
  level: warn
metrics:
  enabled: false
serve:
  grpc_addr: ":9000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, wallet.Signet, cfg.NetworkValue())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9000", cfg.Serve.GRPCAddr)
	assert.Equal(t, Default().Serve.HTTPAddr, cfg.Serve.HTTPAddr)
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		kind errors.Kind
	}{
		{"unknown toml key", "a.toml", "bogus = 1\n", errors.KindInvalidArgument},
		{"unknown yaml key", "a.yaml", "bogus: 1\n", errors.KindMalformedInput},
		{"broken toml", "a.toml", "network = \n", errors.KindMalformedInput},
		{"bad network", "a.toml", "network = \"moonnet\"\n", errors.KindInvalidArgument},
		{"bad level", "a.yaml", "log:\n  level: loud\n", errors.KindInvalidArgument},
		{"bad encoding", "a.yaml", "log:\n  encoding: xml\n", errors.KindInvalidArgument},
		{"negative handles", "a.toml", "max_handles = -1\n", errors.KindInvalidArgument},
		{"inverted backoff", "a.toml", "[transport]\nbackoff_initial_ms = 10\nbackoff_max_ms = 5\n", errors.KindInvalidArgument},
		{"zero attempts", "a.toml", "[transport]\nmax_attempts = 0\n", errors.KindInvalidArgument},
		{"unsupported extension", "a.json", "{}", errors.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, errors.PhaseConfig, e.Phase)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidArgument, errors.CodeOf(err))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvNetwork, "testnet")
	t.Setenv(EnvMaxHandles, "12")

	cfg, err := Load(writeFile(t, "c.toml", "network = \"regtest\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, wallet.Testnet, cfg.NetworkValue())
	assert.Equal(t, 12, cfg.MaxHandles)
}

func TestEnvOverrides_Invalid(t *testing.T) {
	t.Setenv(EnvMaxHandles, "lots")
	_, err := Load("")
	require.Error(t, err)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, []string{EnvMaxHandles}, e.Path)
	assert.Equal(t, "lots", e.Value)
}
