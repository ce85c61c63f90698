package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	ProjectID  string
	BaseURL    string
	NetworkID  string
	RPCURL     string
	PrivateKey string
	Slippage   float64
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".swapflow")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("base_url", "https://rpc.walletconnect.org")
	viper.SetDefault("network_id", "eip155:1")
	viper.SetDefault("slippage", 1.0)

	// Read from environment variables
	viper.SetEnvPrefix("SWAPFLOW")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	// Create config struct
	cfg := &Config{
		ProjectID:  viper.GetString("project_id"),
		BaseURL:    viper.GetString("base_url"),
		NetworkID:  viper.GetString("network_id"),
		RPCURL:     viper.GetString("rpc_url"),
		PrivateKey: viper.GetString("private_key"),
		Slippage:   viper.GetFloat64("slippage"),
	}

	// Validate project ID
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project ID not found. Please set SWAPFLOW_PROJECT_ID environment variable or create a .swapflow.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
