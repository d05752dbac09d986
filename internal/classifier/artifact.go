package classifier

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed models/*.json
var builtinModels embed.FS

// builtinFiles maps each variant to its embedded reference artifact.
var builtinFiles = map[Variant]string{
	VariantLogistic: "models/logistic_regression.json",
	VariantForest:   "models/random_forest.json",
}

// Artifact is a serialized, already-fitted model.
type Artifact struct {
	Variant Variant        `mapstructure:"variant"`
	Version string         `mapstructure:"version"`
	Columns []string       `mapstructure:"columns"`
	Classes []string       `mapstructure:"classes"`
	Params  map[string]any `mapstructure:"params"`
}

var artifactSchema = map[string]any{
	"type":     "object",
	"required": []any{"variant", "version", "columns", "classes", "params"},
	"properties": map[string]any{
		"variant": map[string]any{
			"type": "string",
			"enum": []any{string(VariantLogistic), string(VariantForest)},
		},
		"version": map[string]any{"type": "string", "minLength": 1},
		"columns": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
		"classes": map[string]any{
			"type":     "array",
			"minItems": 2,
			"maxItems": 2,
			"items": map[string]any{
				"type": "string",
				"enum": []any{string(AboveThreshold), string(BelowThreshold)},
			},
		},
		"params": map[string]any{"type": "object"},
	},
}

var (
	compileOnce     sync.Once
	compiledSchema  *jsonschema.Schema
	compileSchemErr error
)

func artifactValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		const url = "schema://model-artifact.json"
		if err := c.AddResource(url, artifactSchema); err != nil {
			compileSchemErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileSchemErr = c.Compile(url)
	})
	return compiledSchema, compileSchemErr
}

// ParseArtifact reads and validates an artifact document.
func ParseArtifact(r io.Reader) (*Artifact, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := artifactValidator()
	if err != nil {
		return nil, fmt.Errorf("compile artifact schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var art Artifact
	if err := mapstructure.Decode(doc, &art); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &art, nil
}

// Build instantiates the classifier described by the artifact. The
// artifact's columns must equal the encoder's columns exactly, in order.
func (a *Artifact) Build(columns []string) (Classifier, error) {
	if !slices.Equal(a.Columns, columns) {
		return nil, fmt.Errorf("%w: artifact has %v, encoder has %v", ErrColumnMismatch, a.Columns, columns)
	}
	var classes [2]Label
	for i, c := range a.Classes {
		l, err := ParseLabel(c)
		if err != nil {
			return nil, err
		}
		classes[i] = l
	}

	switch a.Variant {
	case VariantLogistic:
		var p LogisticParams
		if err := decodeParams(a.Params, &p); err != nil {
			return nil, err
		}
		return NewLogistic(p, classes, len(columns))
	case VariantForest:
		var p ForestParams
		if err := decodeParams(a.Params, &p); err != nil {
			return nil, err
		}
		return NewForest(p, classes, len(columns))
	default:
		return nil, fmt.Errorf("unknown variant %q", a.Variant)
	}
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// LoadFile loads one artifact from disk and builds its classifier.
func LoadFile(path string, columns []string) (Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ArtifactError{Source: path, Err: err}
	}
	defer f.Close()
	return load(path, f, columns)
}

// LoadBuiltin builds the embedded reference classifier for v.
func LoadBuiltin(v Variant, columns []string) (Classifier, error) {
	name, ok := builtinFiles[v]
	if !ok {
		return nil, &ArtifactError{Source: string(v), Err: ErrNotLoaded}
	}
	f, err := builtinModels.Open(name)
	if err != nil {
		return nil, &ArtifactError{Source: name, Err: err}
	}
	defer f.Close()
	return load("builtin:"+name, f, columns)
}

func load(source string, r io.Reader, columns []string) (Classifier, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ArtifactError{Source: source, Err: err}
	}
	art, err := ParseArtifact(bytes.NewReader(data))
	if err != nil {
		return nil, &ArtifactError{Source: source, Err: err}
	}
	c, err := art.Build(columns)
	if err != nil {
		return nil, &ArtifactError{Source: source, Err: err}
	}
	sum := sha256.Sum256(data)
	return &loaded{
		Classifier:  c,
		fingerprint: source + "@" + art.Version + ":" + hex.EncodeToString(sum[:8]),
	}, nil
}

// loaded tags a classifier built from an artifact with the identity of
// that artifact.
type loaded struct {
	Classifier
	fingerprint string
}

func (l *loaded) Fingerprint() string { return l.fingerprint }

// Load builds a Set with one classifier per variant. paths overrides the
// embedded artifact for a variant; variants without an override use the
// builtin reference model.
func Load(columns []string, paths map[Variant]string) (*Set, error) {
	var cs []Classifier
	for _, v := range Variants() {
		var (
			c   Classifier
			err error
		)
		if p := paths[v]; p != "" {
			c, err = LoadFile(p, columns)
		} else {
			c, err = LoadBuiltin(v, columns)
		}
		if err != nil {
			return nil, err
		}
		if c.Variant() != v {
			return nil, &ArtifactError{Source: paths[v], Err: fmt.Errorf("artifact is %s, configured as %s", c.Variant(), v)}
		}
		cs = append(cs, c)
	}
	return NewSet(cs...)
}
