package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/tagprompt/tagprompt/internal/i18n"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
	"github.com/tagprompt/tagprompt/internal/util"
)

// loadYAMLConfig reads the config file at path into a Flags value. Only
// fields with a yaml tag are filled.
func loadYAMLConfig(path string) (*Flags, error) {
	absPath, err := util.GetAbsolutePath(path)
	if err != nil {
		return nil, fmt.Errorf(i18n.T("cli_error_load_config"), path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf(i18n.T("cli_error_load_config"), absPath, err)
	}
	config := &Flags{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf(i18n.T("cli_error_load_config"), absPath, err)
	}
	debuglog.Debug(debuglog.Detailed, "loaded config %s\n", absPath)
	return config, nil
}

// applyYAMLConfig copies every non-zero config value whose option was not
// set on the command line or in the environment.
func applyYAMLConfig(ret, config *Flags, usedFlags map[string]bool) {
	flagsVal := reflect.ValueOf(ret).Elem()
	configVal := reflect.ValueOf(config).Elem()
	for i := 0; i < flagsVal.NumField(); i++ {
		field := flagsVal.Type().Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" || usedFlags[yamlTag] {
			continue
		}
		if value := configVal.Field(i); !value.IsZero() {
			flagsVal.Field(i).Set(value)
			debuglog.Debug(debuglog.Trace, "config sets %s\n", yamlTag)
		}
	}
}

// saveYAMLConfig writes the config file settings of current to path,
// creating its directory. An empty path means the default config file.
func saveYAMLConfig(path string, current *Flags) (savedPath string, err error) {
	if path == "" {
		if path, err = util.GetConfigFilePath(); err != nil {
			return
		}
	}
	if savedPath, err = util.GetAbsolutePath(path); err != nil {
		return
	}

	data, err := yaml.Marshal(current)
	if err != nil {
		return "", fmt.Errorf(i18n.T("cli_error_save_config"), savedPath, err)
	}
	if err = os.MkdirAll(filepath.Dir(savedPath), 0o755); err != nil {
		return "", fmt.Errorf(i18n.T("cli_error_save_config"), savedPath, err)
	}
	if err = os.WriteFile(savedPath, data, 0o644); err != nil {
		return "", fmt.Errorf(i18n.T("cli_error_save_config"), savedPath, err)
	}
	return savedPath, nil
}
