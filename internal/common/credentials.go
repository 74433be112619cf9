package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildCredentialsSchema returns a JSON-Schema (draft 2020-12 subset) for a
// Google service-account key file. Validated locally before any client is
// built, so a bad key aborts the run up front instead of failing mid-batch.
func buildCredentialsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":         map[string]any{"type": "string", "enum": []string{"service_account"}},
			"project_id":   map[string]any{"type": "string", "minLength": 1},
			"private_key":  map[string]any{"type": "string", "minLength": 1},
			"client_email": map[string]any{"type": "string", "minLength": 3, "pattern": `@`},
			"token_uri":    map[string]any{"type": "string"},
		},
		"required": []string{"type", "project_id", "private_key", "client_email"},
	}
}

// ValidateCredentialsFile checks that path exists and holds a structurally
// valid service-account key. Any failure maps to ErrAuthentication, which is
// fatal at process start.
func ValidateCredentialsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("AUTH_ERROR", fmt.Sprintf("cannot read credentials file %s", path), ErrAuthentication)
	}

	b, err := json.Marshal(buildCredentialsSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("credentials-schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("credentials-schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return NewAppError("AUTH_ERROR", "credentials file is not valid JSON", ErrAuthentication)
	}
	if err := schema.Validate(v); err != nil {
		return NewAppError("AUTH_ERROR", fmt.Sprintf("credentials file is not a service-account key: %v", err), ErrAuthentication)
	}
	return nil
}
