// File: cmd/root_test.go
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webeval-cli/internal/config"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestInitializeConfigDefaults(t *testing.T) {
	resetViper(t)
	cfgFile = ""

	require.NoError(t, initializeConfig())

	var loaded config.Config
	require.NoError(t, viper.Unmarshal(&loaded))
	assert.Equal(t, config.Default().Eval.MaxSteps, loaded.Eval.MaxSteps)
	assert.Equal(t, config.Default().Agent.Kind, loaded.Agent.Kind)
	assert.NoError(t, loaded.Validate())
}

func TestInitializeConfigEnvOverride(t *testing.T) {
	resetViper(t)
	cfgFile = ""
	t.Setenv("WEBEVAL_EVALUATION_MAX_STEPS", "7")
	t.Setenv("WEBEVAL_AGENT_KIND", "human")

	require.NoError(t, initializeConfig())

	var loaded config.Config
	require.NoError(t, viper.Unmarshal(&loaded))
	assert.Equal(t, 7, loaded.Eval.MaxSteps)
	assert.Equal(t, "human", loaded.Agent.Kind)
}

func TestInitializeConfigFile(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
browser:
  headless: false
  device_scale_factor: 2.0
evaluation:
  max_steps: 12
`), 0o644))

	cfgFile = path
	t.Cleanup(func() { cfgFile = "" })

	require.NoError(t, initializeConfig())

	var loaded config.Config
	require.NoError(t, viper.Unmarshal(&loaded))
	assert.False(t, loaded.Browser.Headless)
	assert.Equal(t, 2.0, loaded.Browser.DeviceScaleFactor)
	assert.Equal(t, 12, loaded.Eval.MaxSteps)
	// Defaults still fill the gaps.
	assert.Equal(t, config.Default().Batch.Concurrency, loaded.Batch.Concurrency)
}

func TestRootCommandIsWired(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["eval"])
	assert.True(t, names["batch"])
}
