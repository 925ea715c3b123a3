package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     Config
)

var rootCmd = &cobra.Command{
	Use:           "tshl",
	Short:         "Highlight source files with tree-sitter",
	Long:          `tshl highlights source files, languages injected into them included, as terminal colors or HTML.`,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/tshl/config.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format: ansi or html")
	rootCmd.PersistentFlags().StringP("theme", "t", "", "path to a YAML theme")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(renderCmd, watchCmd)
}

func initConfig() {
	cfg = loadConfig(viper.GetViper(), cfgFile)
}

// loadConfig reads the configuration into v. Config lookup order:
// 1. the file given with --config
// 2. .tshl.yaml (current directory)
// 3. ~/.config/tshl/config.yaml
func loadConfig(v *viper.Viper, file string) Config {
	defaults := Defaults()
	v.SetDefault("format", defaults.Format)
	v.SetDefault("class_prefix", defaults.ClassPrefix)
	v.SetDefault("debounce", defaults.Debounce)
	v.SetDefault("query_expiration", defaults.QueryExpiration)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetEnvPrefix("tshl")
	v.AutomaticEnv()

	switch {
	case file != "":
		v.SetConfigFile(file)
	case fileExists(".tshl.yaml"):
		v.SetConfigFile(".tshl.yaml")
	default:
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".config", "tshl"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "tshl: reading config: %v\n", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		fmt.Fprintf(os.Stderr, "tshl: decoding config: %v\n", err)
		return defaults
	}
	return c
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
