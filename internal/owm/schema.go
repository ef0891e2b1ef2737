package owm

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrMalformedPayload is returned when the provider body does not match the expected shape.
var ErrMalformedPayload = errors.New("malformed weather payload")

type schemas struct {
	current  *jsonschema.Schema
	forecast *jsonschema.Schema
}

func loadSchemas() (schemas, error) {
	current, err := compileSchema("current.json")
	if err != nil {
		return schemas{}, err
	}
	forecast, err := compileSchema("forecast.json")
	if err != nil {
		return schemas{}, err
	}
	return schemas{current: current, forecast: forecast}, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	b, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	return compiler.Compile(name)
}

// decodeValidated checks body against schema and then decodes it into out.
func decodeValidated(schema *jsonschema.Schema, body []byte, out any) error {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
