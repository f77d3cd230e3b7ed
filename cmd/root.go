package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/pyramid/internal/logging"
	"github.com/kiesman99/pyramid/internal/registry"
)

var (
	cfgFile string
	log     *logrus.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "pyramid",
	Short:   "Cut large map images into tile pyramids for web map viewers",
	Version: versioninfo.Short(),
	Long: `pyramid turns a very large map image into a multi-resolution tile pyramid.

The image is cropped to the map's declared aspect ratio when it was padded to
a square, padded to power-of-two dimensions, resampled once per zoom level and
cut into 256x256 tiles written to tiles/{namespace}{variant}/{z}/{x}/{y}.{ext}.

Examples:
  # Generate tiles for one map from the registry
  pyramid generate everon

  # Generate by 1-based registry index, using a local image
  pyramid generate 3 --image /data/seitenbuch.png

  # Regenerate every map, replacing existing tiles
  pyramid generate all --overwrite

  # List the registry
  pyramid maps

  # Serve generated tiles
  pyramid serve --port 8080`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logging.New(logging.Config{
			Level:    viper.GetString("log.level"),
			Dir:      viper.GetString("log.dir"),
			Terminal: viper.GetBool("log.terminal"),
		})
		return err
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pyramid.yaml)")
	rootCmd.PersistentFlags().StringP("registry", "r", "all_maps.json", "map registry file")
	rootCmd.PersistentFlags().StringP("output", "o", "tiles", "tile output directory")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-dir", "", "also write logs to a daily file in this directory")

	viper.BindPFlag("registry", rootCmd.PersistentFlags().Lookup("registry"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.SetDefault("log.terminal", true)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pyramid" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pyramid")
	}

	viper.SetEnvPrefix("PYRAMID")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func loadRegistry() (*registry.Registry, error) {
	name := viper.GetString("registry")
	reg, err := registry.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load map registry: %w", err)
	}
	return reg, nil
}
