package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/pkg/config"
)

type testConfig struct {
	Name    string   `env:"CFGTEST_NAME" envDefault:"tradecard"`
	Port    int      `env:"CFGTEST_PORT" envDefault:"8080"`
	Origins []string `env:"CFGTEST_ORIGINS" envSeparator:","`
}

type requiredConfig struct {
	Secret string `env:"CFGTEST_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when env unset", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "tradecard", cfg.Name)
		assert.Equal(t, 8080, cfg.Port)
		assert.Empty(t, cfg.Origins)
	})

	t.Run("env values override defaults", func(t *testing.T) {
		t.Setenv("CFGTEST_NAME", "cards")
		t.Setenv("CFGTEST_PORT", "9090")
		t.Setenv("CFGTEST_ORIGINS", "a.example.com,b.example.com")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "cards", cfg.Name)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Origins)
	})

	t.Run("missing required var fails", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer is rejected", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv_NonExistentPath(t *testing.T) {
	err := config.LoadEnv("testdata/does_not_exist.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrLoadingEnvFiles)
}
