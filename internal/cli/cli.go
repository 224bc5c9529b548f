package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tagprompt/tagprompt/internal/i18n"
	"github.com/tagprompt/tagprompt/internal/input"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
	"github.com/tagprompt/tagprompt/internal/prompt"
	restapi "github.com/tagprompt/tagprompt/internal/server"
)

// Cli Controls the cli. It takes in the flags and runs the appropriate functions
func Cli(version string) (err error) {
	var currentFlags *Flags
	var positional []string
	if currentFlags, positional, err = Init(os.Args[1:]); err != nil {
		return
	}

	if currentFlags.Version {
		fmt.Println(version)
		return
	}

	return Run(currentFlags, positional, stdinReader(), os.Stdout)
}

// Run executes the command selected by currentFlags. stdin may be nil when
// nothing is piped in.
func Run(currentFlags *Flags, positional []string, stdin io.Reader, stdout io.Writer) (err error) {
	if _, err = i18n.Init(currentFlags.Language); err != nil {
		return
	}
	debuglog.SetLevel(debuglog.LevelFromInt(currentFlags.Debug))

	if currentFlags.SaveConfig {
		var path string
		if path, err = saveYAMLConfig(currentFlags.Config, currentFlags); err != nil {
			return
		}
		fmt.Fprintf(stdout, i18n.T("cli_config_saved")+"\n", path)
		return
	}

	parser := prompt.NewParser(currentFlags.BuildParserOptions())

	if currentFlags.Serve {
		return restapi.Serve(parser, currentFlags.Address)
	}

	if currentFlags.PrintSchema {
		return writeOutput(strings.TrimSpace(promptSchema), currentFlags, stdout)
	}

	var output string
	if output, err = runCommand(parser, currentFlags, positional, stdin); err != nil {
		return
	}
	if currentFlags.Schema != "" {
		if err = validateWithSchemaFile(output, currentFlags.Schema, currentFlags.Format); err != nil {
			return
		}
	}
	return writeOutput(output, currentFlags, stdout)
}

func runCommand(parser *prompt.Parser, currentFlags *Flags, positional []string, stdin io.Reader) (output string, err error) {
	if len(currentFlags.Analyze) > 0 {
		return renderAnalysis(parser.Analyzer(), currentFlags.Analyze, currentFlags.Format)
	}

	var text string
	if text, err = input.Load(input.Source{
		Text:      strings.Join(positional, " "),
		Path:      currentFlags.Input,
		Clipboard: currentFlags.Paste,
		Stdin:     stdin,
	}); err != nil {
		return
	}

	if currentFlags.Split {
		return renderSplit(prompt.GroupPrompts(text), currentFlags.Format)
	}

	parsed := parser.Parse(text)
	debuglog.Debug(debuglog.Basic, "parsed %d positive and %d negative tags\n", parsed.Positive.Len(), parsed.Negative.Len())

	if currentFlags.MergeWith != "" {
		var other string
		if other, err = input.LoadFile(currentFlags.MergeWith); err != nil {
			return "", fmt.Errorf(i18n.T("cli_error_merge_with"), currentFlags.MergeWith, err)
		}
		update := parser.Parse(other)
		prompt.MergeTagWeightTable(parsed.Positive, update.Positive)
		prompt.MergeTagWeightTable(parsed.Negative, update.Negative)
	}

	return renderPrompt(parsed, currentFlags)
}
