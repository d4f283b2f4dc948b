package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "camsnap",
	Short: "Capture snapshots from IP cameras",
	Long: `Capture still images from Hikvision and generic HTTP snapshot cameras
listed in a YAML configuration file, on demand or through an HTTP server.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "/config/config.yaml", "Path to configuration file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("debug", false, "Human readable development logging")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
}

// initConfig reads a .env file and CAMSNAP_* environment variables
func initConfig() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	viper.SetEnvPrefix("camsnap")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
