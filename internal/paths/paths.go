// Package paths resolves the configuration and cache directories of the
// basegrid client.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory created under the platform roots.
const AppDirName = "basegrid"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "BASEGRID_CONFIG_DIR"
	EnvDataDir   = "BASEGRID_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	userCacheDir  func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	userCacheDir:  os.UserCacheDir,
}

// DefaultConfigDir returns the platform-specific configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/basegrid (fallback ~/.config/basegrid)
// macOS:   ~/Library/Application Support/basegrid
// Windows: %APPDATA%/basegrid
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", platformDir.userConfigDir, ".config")
}

// DefaultDataDir returns the platform-specific directory for the local
// field cache. The cache can be rebuilt at any time, so it lives under the
// user cache root.
//
// Linux:   $XDG_CACHE_HOME/basegrid (fallback ~/.cache/basegrid)
// macOS:   ~/Library/Caches/basegrid
// Windows: %LocalAppData%/basegrid
func DefaultDataDir() (string, error) {
	return platformPath("XDG_CACHE_HOME", platformDir.userCacheDir, ".cache")
}

func platformPath(xdgEnv string, userDir func() (string, error), homeFallback string) (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, AppDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, homeFallback, AppDirName), nil
	}
	dir, err := userDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDirName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > BASEGRID_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, EnvConfigDir, flag)
}

// ResolveDataDir returns the cache directory following the precedence
// chain: flag > data_dir from config.yaml > BASEGRID_DATA_DIR >
// DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, EnvDataDir, flag, configValue)
}

func resolve(fallback func() (string, error), env string, explicit ...string) (string, error) {
	for _, v := range explicit {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Abs(v)
	}
	return fallback()
}
