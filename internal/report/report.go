// Package report serializes evaluation results to JSON and validates
// them against the versioned report schema, so downstream consumers can
// rely on a stable shape regardless of which probe produced the data.
package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"entrospect/internal/engine"
)

//go:embed schema/source-report-v1.schema.json
var schemaJSON []byte

// SchemaID identifies the report schema version.
const SchemaID = "entrospect://schema/source-report-v1"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(SchemaID, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(SchemaID)
	})
	return schema, schemaErr
}

// Marshal serializes a report to indented JSON after validating it
// against the schema.
func Marshal(rep *engine.SourceReport) ([]byte, error) {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks that the JSON document conforms to the report schema.
func Validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("parse report: %w", err)
	}
	if err := sch.Validate(instance); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}
	return nil
}

// Unmarshal parses and validates a stored report document.
func Unmarshal(data []byte) (*engine.SourceReport, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var rep engine.SourceReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &rep, nil
}

// WriteFile marshals the report and writes it to path.
func WriteFile(rep *engine.SourceReport, path string) error {
	data, err := Marshal(rep)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// MarshalAudit serializes a full audit result; individual reports are
// validated against the schema on the way out.
func MarshalAudit(res *engine.AuditResult) ([]byte, error) {
	for i := range res.Reports {
		single, err := json.Marshal(&res.Reports[i])
		if err != nil {
			return nil, fmt.Errorf("marshal report %s: %w", res.Reports[i].SourceName, err)
		}
		if err := Validate(single); err != nil {
			return nil, fmt.Errorf("report %s: %w", res.Reports[i].SourceName, err)
		}
	}
	return json.MarshalIndent(res, "", "  ")
}
