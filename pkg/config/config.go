package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const (
	DefaultLoggingFormat        = "text"
	DefaultLoggingLevel         = "INFO"
	DefaultLoggingOutput        = "-"
	DefaultLoggingFileMaxSizeMB = 100
	DefaultLoggingFilesKeep     = 7

	DefaultStoreLocalPath = "~/data/viewstore"

	LoggingFormatKey        = "logging.format"
	LoggingLevelKey         = "logging.level"
	LoggingOutputKey        = "logging.output"
	LoggingFileMaxSizeMBKey = "logging.file_max_size_mb"
	LoggingFilesKeepKey     = "logging.files_keep"

	StoreLocalPathKey = "store.local_path"
	StoreRepoNameKey  = "store.repo_name"
)

var ErrBadConfiguration = errors.New("bad configuration")

type configuration struct {
	Logging struct {
		Format        string   `mapstructure:"format"`
		Level         string   `mapstructure:"level"`
		Output        []string `mapstructure:"output"`
		FileMaxSizeMB int      `mapstructure:"file_max_size_mb"`
		FilesKeep     int      `mapstructure:"files_keep"`
	} `mapstructure:"logging"`
	Store struct {
		LocalPath string `mapstructure:"local_path"`
		RepoName  string `mapstructure:"repo_name"`
	} `mapstructure:"store"`
	// Filters maps a filter id to the glob patterns it hides.
	Filters map[string][]string `mapstructure:"filters"`
}

type Config struct {
	values configuration
}

func NewConfig() (*Config, error) {
	setDefaults()
	c := &Config{}
	if err := viper.UnmarshalExact(&c.values); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadConfiguration, err)
	}
	return c, nil
}

func setDefaults() {
	viper.SetDefault(LoggingFormatKey, DefaultLoggingFormat)
	viper.SetDefault(LoggingLevelKey, DefaultLoggingLevel)
	viper.SetDefault(LoggingOutputKey, []string{DefaultLoggingOutput})
	viper.SetDefault(LoggingFileMaxSizeMBKey, DefaultLoggingFileMaxSizeMB)
	viper.SetDefault(LoggingFilesKeepKey, DefaultLoggingFilesKeep)
	viper.SetDefault(StoreLocalPathKey, DefaultStoreLocalPath)
}

func (c *Config) LoggingFormat() string {
	return c.values.Logging.Format
}

func (c *Config) LoggingLevel() string {
	return c.values.Logging.Level
}

func (c *Config) LoggingOutput() []string {
	return c.values.Logging.Output
}

func (c *Config) LoggingFileMaxSizeMB() int {
	return c.values.Logging.FileMaxSizeMB
}

func (c *Config) LoggingFilesKeep() int {
	return c.values.Logging.FilesKeep
}

func (c *Config) StoreLocalPath() string {
	return c.values.Store.LocalPath
}

func (c *Config) StoreRepoName() string {
	return c.values.Store.RepoName
}

// Filters returns the configured filter rule sets: filter id to the glob
// patterns that id hides.
func (c *Config) Filters() map[string][]string {
	return c.values.Filters
}
