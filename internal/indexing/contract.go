package indexing

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaURL = "https://wildscribe.github.io/schema/search-index.json"

//go:embed schema/search-index.schema.json
var schemaContent []byte

var (
	compileOnce sync.Once
	itemsSchema *jsonschema.Schema
	compileErr  error

	violationPrinter = message.NewPrinter(language.English)
)

// ContractViolation is a single schema failure inside search-index.json
type ContractViolation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ContractError reports that search-index.json does not have the expected shape
type ContractError struct {
	Violations []ContractViolation
}

func (e *ContractError) Error() string {
	if len(e.Violations) == 0 {
		return "search index does not match contract"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Path, v.Message))
	}
	return "search index does not match contract: " + strings.Join(parts, "; ")
}

// compiledSchema compiles the embedded item schema once per process
func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaContent))
		if err != nil {
			compileErr = fmt.Errorf("embedded schema is invalid: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("failed to add schema: %w", err)
			return
		}
		itemsSchema, compileErr = compiler.Compile(schemaURL)
	})
	return itemsSchema, compileErr
}

// ParseItems decodes a search-index.json document and validates its shape.
// Items are returned in document order.
func ParseItems(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search index: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &ContractError{Violations: collectViolations(validationErr)}
		}
		return nil, fmt.Errorf("failed to validate search index: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode search index: %w", err)
	}
	return items, nil
}

// collectViolations flattens the leaf errors of a validation tree
func collectViolations(validationErr *jsonschema.ValidationError) []ContractViolation {
	if len(validationErr.Causes) == 0 {
		path := "$"
		if len(validationErr.InstanceLocation) > 0 {
			path = "$." + strings.Join(validationErr.InstanceLocation, ".")
		}
		return []ContractViolation{{Path: path, Message: validationErr.ErrorKind.LocalizedString(violationPrinter)}}
	}

	var violations []ContractViolation
	for _, cause := range validationErr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
