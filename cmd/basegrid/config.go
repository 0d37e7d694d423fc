// Config loading for the basegrid CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/basegrid/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "BASEGRID"

	cfgKeyAPIURL               = "api_url"
	cfgKeyWSURL                = "ws_url"
	cfgKeyPageSize             = "page_size"
	cfgKeyReconnectInitial     = "reconnect_initial"
	cfgKeyReconnectMaxAttempts = "reconnect_max_attempts"
	cfgKeyFieldCacheTTL        = "field_cache_ttl"
	cfgKeyDataDir              = "data_dir"
	cfgKeyMetricsAddr          = "metrics_addr"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# basegrid CLI configuration

# REST API root and live update endpoint of the base service
api_url: http://localhost:8080/api/v1
ws_url: ws://localhost:8080/ws

# Records per page
page_size: 50

# Live channel reconnects: first delay, doubled per attempt
reconnect_initial: 1s
reconnect_max_attempts: 5

# Age limit of cached table schemas; 0 disables the cache
field_cache_ttl: 5m

# Cache directory (optional; overridable by --data-dir flag)
# data_dir:

# Serve Prometheus metrics while watching (optional)
# metrics_addr: 127.0.0.1:9464
`

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run. BASEGRID_<KEY> environment
// variables override file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	def := types.DefaultConfig()
	v.SetDefault(cfgKeyAPIURL, def.APIURL)
	v.SetDefault(cfgKeyWSURL, def.WSURL)
	v.SetDefault(cfgKeyPageSize, def.PageSize)
	v.SetDefault(cfgKeyReconnectInitial, def.ReconnectInitial)
	v.SetDefault(cfgKeyReconnectMaxAttempts, def.ReconnectMaxAttempts)
	v.SetDefault(cfgKeyFieldCacheTTL, def.FieldCacheTTL)
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyMetricsAddr, "")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// configFromViper maps loaded keys onto a types.Config. Validation is left
// to app.New.
func configFromViper(v *viper.Viper) types.Config {
	return types.Config{
		APIURL:               v.GetString(cfgKeyAPIURL),
		WSURL:                v.GetString(cfgKeyWSURL),
		PageSize:             v.GetInt(cfgKeyPageSize),
		ReconnectInitial:     v.GetDuration(cfgKeyReconnectInitial),
		ReconnectMaxAttempts: v.GetInt(cfgKeyReconnectMaxAttempts),
		FieldCacheTTL:        v.GetDuration(cfgKeyFieldCacheTTL),
		DataDir:              v.GetString(cfgKeyDataDir),
		MetricsAddr:          v.GetString(cfgKeyMetricsAddr),
	}
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates config.yaml unless it already exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
