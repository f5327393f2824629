package core

import (
	yaml "github.com/jsccast/yaml"
)

// ReadTree parses YAML (or JSON, which is YAML) into a canonical tree.
//
// We use the jsccast fork of go-yaml because it yields
// map[string]interface{} instead of map[interface{}]interface{}, which
// is what the rest of this package expects.  Canonicalize then makes
// the numbers uniform too.
func ReadTree(bs []byte) (interface{}, error) {
	var x interface{}
	if err := yaml.Unmarshal(bs, &x); err != nil {
		return nil, err
	}
	return Canonicalize(x)
}

// ReadStep parses and decodes a single step.
func ReadStep(bs []byte) (Step, error) {
	x, err := ReadTree(bs)
	if err != nil {
		return nil, err
	}
	return DecodeStep(x)
}

// ReadPipeline parses and decodes a pipeline (or a bare step).
func ReadPipeline(bs []byte) (*Pipeline, error) {
	x, err := ReadTree(bs)
	if err != nil {
		return nil, err
	}
	return DecodePipeline(x)
}
