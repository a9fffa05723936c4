package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/treeverse/viewstore/pkg/config"
	"github.com/treeverse/viewstore/pkg/filter"
	"github.com/treeverse/viewstore/pkg/logging"
	"github.com/treeverse/viewstore/pkg/store"
	"github.com/treeverse/viewstore/pkg/store/filtered"
	"github.com/treeverse/viewstore/pkg/store/local"
	"github.com/treeverse/viewstore/pkg/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "viewstore",
	Short:   "viewstore serves filtered views of a content-addressed object store",
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var initOnce sync.Once

//nolint:gochecknoinits
func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.viewstore.yaml)")
}

func die(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", msg, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	initOnce.Do(initConfig)
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Println("Failed to load config file", err)
		os.Exit(1)
	}
	logging.SetLevel(cfg.LoggingLevel())
	logging.SetOutputFormat(cfg.LoggingFormat())
	logging.SetOutputs(cfg.LoggingOutput(), cfg.LoggingFileMaxSizeMB(), cfg.LoggingFilesKeep())
	return cfg
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		die("find home directory", err)
		viper.AddConfigPath(home)
		viper.SetConfigName(".viewstore")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("VIEWSTORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		die("read config file", err)
	}
}

// openLocalStore opens the configured local store. Callers own the returned
// close function.
func openLocalStore(cfg *config.Config) (*local.Store, func()) {
	path, err := homedir.Expand(cfg.StoreLocalPath())
	die("expand store path", err)
	inner, err := local.Open(path, local.WithRepoName(cfg.StoreRepoName()))
	die("open local store", err)
	return inner, func() { _ = inner.Close() }
}

// openFilteredStore stacks the filtered facade over the configured local
// store with the configured glob rule sets.
func openFilteredStore(cfg *config.Config) (*filtered.Store, func()) {
	inner, closeFn := openLocalStore(cfg)
	rules, err := filter.NewGlobFilter(cfg.Filters())
	if err != nil {
		closeFn()
		die("compile filter rules", err)
	}
	metered := store.NewMetricsStore(inner, "local")
	return filtered.New(metered, rules), closeFn
}
