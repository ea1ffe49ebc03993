package irdoc

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/weichx/FastExpressionCompiler/internal/light"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Document is a loaded tree.
type Document struct {
	// Name identifies the tree. It defaults to the file's base name.
	Name string

	// Source is the path the document was loaded from, if any.
	Source string

	// Variables maps declared names to their shared parameters.
	Variables map[string]*light.Parameter

	// Root is the tree.
	Root light.Node
}

// VariableNames returns the declared variable names in sorted order.
func (d *Document) VariableNames() []string {
	names := make([]string, 0, len(d.Variables))
	for name := range d.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load reads a document from path. Files ending in .cue are CUE; all
// others are YAML.
func Load(path string, reg *meta.Registry) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read document")
	}

	var doc *Document
	if filepath.Ext(path) == ".cue" {
		doc, err = ParseCUE(data, path, reg)
	} else {
		doc, err = ParseYAML(data, reg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	doc.Source = path
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// ParseYAML builds a document from YAML.
func ParseYAML(data []byte, reg *meta.Registry) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}
	return build(raw, reg)
}

// ParseCUE builds a document from CUE. The document must be concrete.
func ParseCUE(data []byte, filename string, reg *meta.Registry) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	raw, err := fromCUE(v)
	if err != nil {
		return nil, err
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errorf("", "document must be a struct")
	}
	return build(m, reg)
}

// fromCUE converts a concrete CUE value into the plain values YAML
// decoding produces, keeping struct field order irrelevant.
func fromCUE(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StructKind:
		out := map[string]any{}
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			child, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Label()] = child
		}
		return out, nil
	case cue.ListKind:
		var out []any
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			child, err := fromCUE(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		i, err := v.Int64()
		return int(i), err
	case cue.FloatKind:
		return v.Float64()
	case cue.BoolKind:
		return v.Bool()
	case cue.NullKind:
		return nil, nil
	default:
		return nil, errorf(v.Path().String(), "unsupported CUE value of kind %s", v.Kind())
	}
}

// formatCUEError reports the first CUE error with its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pos := positions[0]
		return errorf(pos.String(), "%s", first.Error())
	}
	return first
}
