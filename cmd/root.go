package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/endorses/routefilter/cmd/imports"
	"github.com/endorses/routefilter/cmd/query"
	"github.com/endorses/routefilter/cmd/watch"
	"github.com/endorses/routefilter/internal/pkg/cmdutil"
	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/endorses/routefilter/internal/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	inventoryFile string
	logLevel      string
	logFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "rf",
	Short: "rf filters routing inventory records",
	Long: fmt.Sprintf(`routefilter %s - Attribute filters for static routes and OSPF inventory

Filters are given as name=value arguments. Repeating a name or separating
values with commas matches any of the values; distinct names must all match.`, version.Get().Version),
	Version:           version.Get().String(),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: configureLogging,
}

// Execute runs the root command and exits with a code matching the error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(cmdutil.WriteError(os.Stderr, err))
	}
}

func addSubCommandPalattes() {
	rootCmd.AddCommand(query.QueryCmd)
	rootCmd.AddCommand(query.FiltersCmd)
	rootCmd.AddCommand(watch.WatchCmd)
	rootCmd.AddCommand(imports.ImportCmd)
}

func init() {
	cobra.OnInitialize(initConfig)

	addSubCommandPalattes()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/routefilter/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&inventoryFile, "inventory", "i", "", "inventory file (default is $HOME/.config/routefilter/inventory.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or text")

	_ = viper.BindPFlag("inventory.file", rootCmd.PersistentFlags().Lookup("inventory"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home + "/.config/routefilter")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("ROUTEFILTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("output.format", "json")
	viper.SetDefault("metrics.port", 0)
	viper.SetDefault("watch.debounce", "200ms")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func configureLogging(cmd *cobra.Command, args []string) error {
	return logger.Configure(logger.Options{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	})
}
