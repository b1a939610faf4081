package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/firlift/firlift/internal/common"
)

// BuildUploadPayloadSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the extraction backend's success payload. The two
// required fields mirror what the backend's own agent contract demands; all
// presentation fields are nullable.
func BuildUploadPayloadSchema() map[string]any {
	nullable := func(t string) map[string]any {
		return map[string]any{"type": []string{t, "null"}}
	}
	props := map[string]any{
		"filename":            nullable("string"),
		"file_size":           nullable("number"),
		"raw_urdu_text":       map[string]any{"type": "string"},
		"corrected_urdu_text": nullable("string"),
		"corrected_text":      nullable("string"),
		"original_text":       nullable("string"),
		"fir_structured_data": nullable("object"),
		"extraction_type":     nullable("string"),
		"corrections_applied": map[string]any{},
		"correction_stats":    nullable("object"),
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   []string{"raw_urdu_text", "fir_structured_data"},
	}
}

// PayloadValidator checks backend payloads against the expected shape.
// In lenient mode (the default) violations are logged and tolerated, matching
// the backend's historical looseness; strict mode turns them into errors.
type PayloadValidator struct {
	schema *jsonschema.Schema
	strict bool
	logger *slog.Logger
}

func NewPayloadValidator(strict bool, logger *slog.Logger) (*PayloadValidator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := json.Marshal(BuildUploadPayloadSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("upload_payload.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("upload_payload.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &PayloadValidator{schema: schema, strict: strict, logger: logger}, nil
}

// Validate checks raw against the payload schema. A nil return means the
// payload may proceed to normalization; lenient mode always returns nil for
// shape violations (only unparseable JSON is reported upstream by Normalize).
func (pv *PayloadValidator) Validate(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		// Not this layer's call; Normalize classifies unparseable bodies.
		return nil
	}
	if err := pv.schema.Validate(v); err != nil {
		if pv.strict {
			return common.NewAppError("PAYLOAD_SCHEMA", "backend payload violates expected shape", common.ErrBackend)
		}
		pv.logger.Warn("extract.payload.schema_violation", "error", err)
	}
	return nil
}
