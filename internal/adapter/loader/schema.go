package loader

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.json
var catalogSchemaJSON []byte

const catalogSchemaID = "inmemory://models-catalog"

var (
	catalogSchemaOnce sync.Once
	catalogSchema     *jsonschema.Schema
	catalogSchemaErr  error
)

func compiledCatalogSchema() (*jsonschema.Schema, error) {
	catalogSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(catalogSchemaID, bytes.NewReader(catalogSchemaJSON)); err != nil {
			catalogSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		catalogSchema, catalogSchemaErr = compiler.Compile(catalogSchemaID)
	})
	return catalogSchema, catalogSchemaErr
}

// validateCatalogDocument checks raw YAML against the catalog schema before
// it is decoded, so misspelled keys fail instead of being dropped.
func validateCatalogDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse models config: %w", err)
	}
	// round-trip through JSON so the validator sees JSON types
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize models config: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("normalize models config: %w", err)
	}

	schema, err := compiledCatalogSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("models config: %w", err)
	}
	return nil
}
