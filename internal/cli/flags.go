package cli

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/tagprompt/tagprompt/internal/i18n"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
	"github.com/tagprompt/tagprompt/internal/prompt"
	"github.com/tagprompt/tagprompt/internal/util"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOON = "toon"

	SectionAll      = "all"
	SectionPositive = "positive"
	SectionNegative = "negative"
	SectionExtra    = "extra"
)

// Flags holds the command line options. Fields with a yaml tag can also be
// set from the config file.
type Flags struct {
	Input             string   `short:"i" long:"input" yaml:"-" description:"Read the prompt from a text file or a PNG image"`
	Paste             bool     `long:"paste" yaml:"-" description:"Read the prompt from the clipboard"`
	Format            string   `short:"f" long:"format" yaml:"format" env:"TAGPROMPT_FORMAT" description:"Output format: text, json, yaml or toon" default:"text"`
	Section           string   `short:"s" long:"section" yaml:"-" description:"Section to print: all, positive, negative or extra" default:"all"`
	NoWeight          bool     `short:"n" long:"no-weight" yaml:"noWeight" env:"TAGPROMPT_NO_WEIGHT" description:"Print tags without weights"`
	ReformatExtra     bool     `short:"r" long:"reformat-extra" yaml:"reformatExtra" env:"TAGPROMPT_REFORMAT_EXTRA" description:"Print extra info as one \"key: value\" per line"`
	Analyze           []string `short:"a" long:"analyze" yaml:"-" description:"Analyze a single token and print its tags and weights (repeatable)"`
	Split             bool     `long:"split" yaml:"-" description:"Print the tokens of every prompt line instead of the tag tables"`
	MergeWith         string   `short:"m" long:"merge-with" yaml:"-" description:"Merge the tags of this prompt file onto the input"`
	Copy              bool     `short:"c" long:"copy" yaml:"-" description:"Copy the output to the clipboard"`
	Output            string   `short:"o" long:"output" yaml:"-" description:"Write the output to a file"`
	Schema            string   `long:"schema" yaml:"-" description:"Validate the json output against this JSON schema file"`
	PrintSchema       bool     `long:"print-schema" yaml:"-" description:"Print the JSON schema of the json output"`
	CurlyBase         float64  `long:"curly-base" yaml:"curlyBase" env:"TAGPROMPT_CURLY_BASE" description:"Per-layer multiplier of {...}" default:"1.1"`
	ParenMode         string   `long:"paren-mode" yaml:"parenMode" env:"TAGPROMPT_PAREN_MODE" description:"How (...) is weighted: emphasis or group" default:"emphasis"`
	LegacyColonGroups bool     `long:"legacy-colon" yaml:"legacyColonGroups" env:"TAGPROMPT_LEGACY_COLON" description:"Accept the (tagA:tagB:1.1:1.2) weight syntax"`
	Serve             bool     `long:"serve" yaml:"-" description:"Serve the REST API"`
	Address           string   `long:"address" yaml:"address" env:"TAGPROMPT_ADDRESS" description:"The address to bind the REST API" default:":8080"`
	Config            string   `long:"config" yaml:"-" description:"Path to YAML config file"`
	SaveConfig        bool     `long:"save-config" yaml:"-" description:"Write the current settings to the config file"`
	Language          string   `short:"g" long:"language" yaml:"language" env:"TAGPROMPT_LANGUAGE" description:"Language for messages, e.g. en or zh"`
	Debug             int      `long:"debug" yaml:"debug" env:"TAGPROMPT_DEBUG" description:"Debug level: 0=off, 1=basic, 2=detailed, 3=trace, 4=wire" default:"0"`
	Version           bool     `long:"version" yaml:"-" description:"Print current version"`
}

// Init loads the .env file, parses args and applies the config file to
// the options args left unset. It returns the positional arguments.
func Init(args []string) (ret *Flags, positional []string, err error) {
	if err = loadEnvFile(); err != nil {
		return
	}

	ret = &Flags{}
	parser := flags.NewParser(ret, flags.Default)
	parser.Usage = "[OPTIONS] [prompt text]"
	if positional, err = parser.ParseArgs(args); err != nil {
		return
	}

	usedFlags := scanUsedFlags(args)

	configPath := ret.Config
	if configPath == "" {
		if configPath, err = util.GetDefaultConfigPath(); err != nil {
			return
		}
	}
	if configPath != "" && !(ret.SaveConfig && !fileExists(configPath)) {
		var yamlFlags *Flags
		if yamlFlags, err = loadYAMLConfig(configPath); err != nil {
			return
		}
		applyYAMLConfig(ret, yamlFlags, usedFlags)
	}

	err = ret.validate()
	return
}

func loadEnvFile() error {
	envPath, err := util.GetDefaultEnvPath()
	if err != nil || envPath == "" {
		return err
	}
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf(i18n.T("cli_error_load_env"), err)
	}
	debuglog.Debug(debuglog.Detailed, "loaded env file %s\n", envPath)
	return nil
}

// scanUsedFlags returns the yaml keys of the options that args or the
// environment set explicitly.
func scanUsedFlags(args []string) map[string]bool {
	names := map[string]bool{}
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if flag := extractFlag(arg); flag != "" {
			names[flag] = true
		}
	}

	used := map[string]bool{}
	t := reflect.TypeOf(Flags{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		if names[field.Tag.Get("long")] || names[field.Tag.Get("short")] {
			used[yamlTag] = true
		}
		if env := field.Tag.Get("env"); env != "" {
			if _, ok := os.LookupEnv(env); ok {
				used[yamlTag] = true
			}
		}
	}
	return used
}

func extractFlag(arg string) string {
	var flag string
	switch {
	case strings.HasPrefix(arg, "--"):
		flag = strings.TrimPrefix(arg, "--")
	case strings.HasPrefix(arg, "-") && len(arg) > 1:
		flag = strings.TrimPrefix(arg, "-")
	default:
		return ""
	}
	if i := strings.Index(flag, "="); i > 0 {
		flag = flag[:i]
	}
	return flag
}

func (o *Flags) validate() error {
	switch o.Format {
	case FormatText, FormatJSON, FormatYAML, FormatTOON:
	default:
		return fmt.Errorf(i18n.T("cli_error_unknown_format"), o.Format)
	}
	switch o.Section {
	case SectionAll, SectionPositive, SectionNegative, SectionExtra:
	default:
		return fmt.Errorf(i18n.T("cli_error_unknown_section"), o.Section)
	}
	if _, ok := prompt.ParseParenMode(o.ParenMode); !ok {
		return fmt.Errorf(i18n.T("cli_error_unknown_paren_mode"), o.ParenMode)
	}
	return nil
}

// BuildParserOptions maps the weighting flags to prompt.Options.
func (o *Flags) BuildParserOptions() prompt.Options {
	mode, _ := prompt.ParseParenMode(o.ParenMode)
	return prompt.Options{
		CurlyBase:         o.CurlyBase,
		ParenMode:         mode,
		LegacyColonGroups: o.LegacyColonGroups,
	}
}

func fileExists(path string) bool {
	absPath, err := util.GetAbsolutePath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(absPath)
	return err == nil
}

// hasStdin reports whether something is piped into the process.
func hasStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func stdinReader() io.Reader {
	if hasStdin() {
		return os.Stdin
	}
	return nil
}
