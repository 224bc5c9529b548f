package cli

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tagprompt/tagprompt/internal/i18n"
)

// promptSchema describes the json output of a parsed prompt.
//
//go:embed prompt.schema.json
var promptSchema string

// validateOutputWithSchema validates JSON output against a given JSON schema.
// It returns an error if the output does not conform to the schema.
func validateOutputWithSchema(output, schemaContent string) error {
	if schemaContent == "" {
		return nil // No schema to validate against
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(output)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("error during schema validation: %w", err)
	}

	if !result.Valid() {
		errorString := "output failed schema validation:"
		for _, desc := range result.Errors() {
			errorString += fmt.Sprintf("\n- %s", desc)
		}
		return fmt.Errorf("%s", errorString)
	}

	return nil
}

// validateWithSchemaFile checks json output against the schema stored at path.
func validateWithSchemaFile(output, path, format string) error {
	if format != FormatJSON {
		return fmt.Errorf(i18n.T("cli_error_schema_needs_json"), format)
	}
	schemaContent, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf(i18n.T("cli_error_read_schema"), path, err)
	}
	return validateOutputWithSchema(output, string(schemaContent))
}
