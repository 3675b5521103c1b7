package summary

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed summary.schema.json
var summarySchemaJSON []byte

var (
	summarySchema *jsonschema.Schema
	compileOnce   sync.Once
	compileErr    error
)

// compileSchema compiles the embedded summary schema once.
func compileSchema() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(summarySchemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal summary schema: %w", err)
			return
		}

		if err := compiler.AddResource("summary.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add summary schema resource: %w", err)
			return
		}

		summarySchema, compileErr = compiler.Compile("summary.schema.json")
	})

	return compileErr
}

// Validate checks JSON data against the summary schema. Negative distances,
// missing fields and unknown fields are all rejected.
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := summarySchema.Validate(doc); err != nil {
		return fmt.Errorf("summary validation failed: %w", err)
	}

	return nil
}

// ValidateFile checks a summary artifact on disk against the schema.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &SerializationError{Path: path, Err: err}
	}

	if err := Validate(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}
