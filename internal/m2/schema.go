package m2

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchemaURL = "https://dictionary.schemas.local/model.schema.json"

//go:embed model.schema.json
var documentSchemaSource []byte

var documentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(documentSchemaURL, bytes.NewReader(documentSchemaSource)); err != nil {
		return nil, fmt.Errorf("model document schema load failed: %w", err)
	}
	compiled, err := c.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("model document schema compile failed: %w", err)
	}
	return compiled, nil
})

// checkDocument validates a generically decoded YAML or JSON document.
func checkDocument(doc any) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}
	// round-trip through JSON so YAML scalars take JSON types
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("model document is not representable as JSON: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return fmt.Errorf("model document: %w", err)
	}
	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("model document schema validation failed: %w", err)
	}
	return nil
}
