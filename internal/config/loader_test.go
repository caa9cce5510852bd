package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
platform:
  base_url: https://api.fabric.example.com/v1
  token: secret-token
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Service.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Jobs.PollInterval)
	assert.Equal(t, 7*time.Second, cfg.Export.ItemDelay)
	assert.Equal(t, "exports", cfg.Export.Root)
	assert.Empty(t, cfg.Ledger.Path)
}

func TestLoadExpandsTokenFromEnv(t *testing.T) {
	t.Setenv("TENANTFORGE_TOKEN", "from-env")

	path := writeConfig(t, `
platform:
  base_url: https://api.fabric.example.com/v1
  token: ${TENANTFORGE_TOKEN}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Platform.Token)
}

func TestLoadParsesJobSettings(t *testing.T) {
	path := writeConfig(t, `
platform:
  base_url: https://api.fabric.example.com/v1
  token: secret-token
jobs:
  poll_interval: 5000000000
  step_delay: 250000000
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Jobs.PollInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Jobs.StepDelay)
}

func TestLoadRejectsMissingToken(t *testing.T) {
	path := writeConfig(t, `
platform:
  base_url: https://api.fabric.example.com/v1
  token: ${TENANTFORGE_UNSET_TOKEN}
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform.token")
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"missing base_url": `
platform:
  token: x
`,
		"negative poll interval": `
platform:
  base_url: https://api.fabric.example.com/v1
  token: x
jobs:
  poll_interval: -5s
`,
		"negative step delay": `
platform:
  base_url: https://api.fabric.example.com/v1
  token: x
jobs:
  step_delay: -1
`,
		"empty export root": `
platform:
  base_url: https://api.fabric.example.com/v1
  token: x
export:
  root: ""
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
