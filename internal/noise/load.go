package noise

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// LoadNoiseModel reads a noise-model document from path.
//
// Supported formats, chosen by extension:
//   - .yaml/.yml: strict YAML (unknown fields rejected)
//   - .json: strict JSON
//   - .cue: CUE, evaluated to a concrete value
//
// Every document is checked against the embedded #NoiseModel schema before
// it is returned. Schema violations are reported as MalformedNoiseModelError.
func LoadNoiseModel(path string) (*NoiseModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read noise model: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	case ".cue":
		return ParseCUE(path, data)
	default:
		return nil, fmt.Errorf("unsupported noise model format %q", ext)
	}
}

// ParseYAML decodes and schema-checks a YAML noise model.
func ParseYAML(data []byte) (*NoiseModel, error) {
	var model NoiseModel
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&model); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := checkSchema(&model); err != nil {
		return nil, err
	}
	return &model, nil
}

// ParseJSON decodes and schema-checks a JSON noise model.
func ParseJSON(data []byte) (*NoiseModel, error) {
	var model NoiseModel
	if err := decodeStrictJSON(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if err := checkSchema(&model); err != nil {
		return nil, err
	}
	return &model, nil
}

// ParseCUE evaluates a CUE noise model, unifies it with the schema and
// decodes the concrete result.
func ParseCUE(filename string, data []byte) (*NoiseModel, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %s", cueerrors.Details(err, nil))
	}

	unified, err := unifySchema(ctx, v)
	if err != nil {
		return nil, err
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE: %w", err)
	}
	var model NoiseModel
	if err := decodeStrictJSON(raw, &model); err != nil {
		return nil, fmt.Errorf("failed to decode CUE export: %w", err)
	}
	return &model, nil
}

// checkSchema round-trips a decoded model through JSON into CUE so YAML and
// JSON documents obey the same schema as CUE ones.
func checkSchema(model *NoiseModel) error {
	raw, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode noise model: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(raw, cue.Filename("noise-model.json"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("failed to load noise model into CUE: %w", err)
	}
	_, err = unifySchema(ctx, v)
	return err
}

func unifySchema(ctx *cue.Context, v cue.Value) (cue.Value, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#NoiseModel"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("noise model schema: %w", err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, &MalformedNoiseModelError{
			Code:    ErrCodeSchema,
			Index:   -1,
			Message: strings.TrimSpace(cueerrors.Details(err, nil)),
		}
	}
	return unified, nil
}

func decodeStrictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
