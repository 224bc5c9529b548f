package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tagprompt/tagprompt/internal/i18n"
)

const (
	appDirName     = "tagprompt"
	configFileName = "config.yaml"
	envFileName    = ".env"
)

// GetAbsolutePath resolves a given path to its absolute form, handling ~, ./, ../, UNC paths, and symlinks.
func GetAbsolutePath(path string) (string, error) {
	if path == "" {
		return "", errors.New(i18n.T("util_error_path_is_empty"))
	}

	// Handle UNC paths on Windows
	if runtime.GOOS == "windows" && strings.HasPrefix(path, `\\`) {
		return path, nil
	}

	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New(i18n.T("util_error_resolve_home_directory"))
		}
		path = filepath.Join(home, path[1:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.New(i18n.T("util_error_get_absolute_path"))
	}

	// Resolve symlinks, but allow non-existent paths
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		return resolvedPath, nil
	}
	if os.IsNotExist(err) {
		return absPath, nil
	}

	return "", fmt.Errorf(i18n.T("util_error_resolve_symlinks"), err)
}

// ConfigDir returns the tagprompt directory under the user config directory.
// It does not create it.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf(i18n.T("util_error_determine_config_directory"), err)
	}
	return filepath.Join(configDir, appDirName), nil
}

// GetConfigFilePath returns where the config file lives, whether or not it
// exists yet.
func GetConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// GetDefaultConfigPath returns the default path for the configuration file
// if it exists, otherwise returns an empty string.
func GetDefaultConfigPath() (string, error) {
	return existingFile(GetConfigFilePath)
}

// GetDefaultEnvPath returns the .env file in the config directory if it
// exists, otherwise an empty string.
func GetDefaultEnvPath() (string, error) {
	return existingFile(func() (string, error) {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, envFileName), nil
	})
}

func existingFile(locate func() (string, error)) (string, error) {
	path, err := locate()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf(i18n.T("util_error_accessing_config_path"), err)
	}
	return path, nil
}
