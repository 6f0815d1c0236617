package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/medisage/pkg/config"
)

type defaultsConfig struct {
	Name    string `env:"CFG_TEST_NAME" envDefault:"medisage"`
	Limit   int    `env:"CFG_TEST_LIMIT" envDefault:"5"`
	Enabled bool   `env:"CFG_TEST_ENABLED" envDefault:"true"`
}

type overrideConfig struct {
	Name  string `env:"CFG_TEST_OVERRIDE_NAME" envDefault:"default"`
	Limit int    `env:"CFG_TEST_OVERRIDE_LIMIT" envDefault:"1"`
}

type requiredConfig struct {
	URL string `env:"CFG_TEST_REQUIRED_URL,required"`
}

type cachedConfig struct {
	Value string `env:"CFG_TEST_CACHED" envDefault:"first"`
}

type fileConfig struct {
	Secret string `env:"CFG_TEST_FILE_SECRET"`
}

func TestLoad(t *testing.T) {
	t.Run("uses defaults", func(t *testing.T) {
		config.Reset()

		var cfg defaultsConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "medisage", cfg.Name)
		assert.Equal(t, 5, cfg.Limit)
		assert.True(t, cfg.Enabled)
	})

	t.Run("reads environment", func(t *testing.T) {
		config.Reset()
		t.Setenv("CFG_TEST_OVERRIDE_NAME", "custom")
		t.Setenv("CFG_TEST_OVERRIDE_LIMIT", "42")

		var cfg overrideConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "custom", cfg.Name)
		assert.Equal(t, 42, cfg.Limit)
	})

	t.Run("fails on missing required value", func(t *testing.T) {
		config.Reset()

		var cfg requiredConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		var cfg *defaultsConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("caches parsed values", func(t *testing.T) {
		config.Reset()

		var first cachedConfig
		require.NoError(t, config.Load(&first))
		assert.Equal(t, "first", first.Value)

		t.Setenv("CFG_TEST_CACHED", "second")

		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)

		config.Reset()

		var third cachedConfig
		require.NoError(t, config.Load(&third))
		assert.Equal(t, "second", third.Value)
	})
}

func TestMustLoad(t *testing.T) {
	config.Reset()

	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFG_TEST_FILE_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CFG_TEST_FILE_SECRET") })

	require.NoError(t, config.LoadEnv(path))

	config.Reset()
	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-file", cfg.Secret)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnvFile)
	assert.NoError(t, config.LoadEnv())
}
