package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/treeverse/viewstore/pkg/config"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	cfg, err := config.NewConfig()
	require.NoError(t, err)
	require.Equal(t, config.DefaultLoggingFormat, cfg.LoggingFormat())
	require.Equal(t, config.DefaultLoggingLevel, cfg.LoggingLevel())
	require.Equal(t, []string{config.DefaultLoggingOutput}, cfg.LoggingOutput())
	require.Equal(t, config.DefaultStoreLocalPath, cfg.StoreLocalPath())
	require.Empty(t, cfg.Filters())
}

func TestOverrides(t *testing.T) {
	viper.Reset()
	viper.Set(config.LoggingLevelKey, "debug")
	viper.Set(config.StoreLocalPathKey, "/tmp/objects")
	viper.Set(config.StoreRepoNameKey, "fixture")
	viper.Set("filters", map[string][]string{
		"no-secrets": {"secrets/*"},
	})

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LoggingLevel())
	require.Equal(t, "/tmp/objects", cfg.StoreLocalPath())
	require.Equal(t, "fixture", cfg.StoreRepoName())
	require.Equal(t, []string{"secrets/*"}, cfg.Filters()["no-secrets"])
}
