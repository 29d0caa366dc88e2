package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"
)

const (
	// PipelineFile is the name of the stage declaration file.
	PipelineFile = "pipeline.yaml"

	// ParamsFile is the name of the parameter file stages select values from.
	ParamsFile = "params.yaml"
)

// Stage declares one step of a pipeline.
type Stage struct {
	// Cmd is a shell command executing this stage.
	Cmd string `yaml:"cmd"`

	// Deps are files this stage reads, relative to the pipeline root.
	//
	// A dep may be an out of another stage or a plain file on disk.
	Deps []string `yaml:"deps,omitempty"`

	// Outs are files this stage writes. Each out has a single producer.
	Outs []string `yaml:"outs,omitempty"`

	// Params are keys into params.yaml, dotted for nested values.
	Params []string `yaml:"params,omitempty"`

	// Metrics are files Cmd writes as flat JSON objects of numbers.
	Metrics []string `yaml:"metrics,omitempty"`

	// Resources are declared for schedulers. The local runner does not
	// enforce them.
	Resources map[string]string `yaml:"resources,omitempty"`
}

// Manifest is a parsed pipeline file.
type Manifest struct {
	Stages map[string]Stage `yaml:"stages"`
}

// LoadManifest reads and validates a pipeline file.
//
// Fields not declared in Stage are rejected.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	man := &Manifest{}
	if err := dec.Decode(man); err != nil {
		return nil, fmt.Errorf("broken pipeline file %s: %w", path, err)
	}
	if err := man.Validate(); err != nil {
		return nil, err
	}
	return man, nil
}

// Validate checks the manifest on its own, without looking at the filesystem.
//
// Deps without a producer stage are not errors here. They are resolved
// against files on disk when the pipeline runs.
func (m *Manifest) Validate() error {
	if len(m.Stages) == 0 {
		return errors.New("pipeline has no stages")
	}

	names := make([]string, 0, len(m.Stages))
	for name := range m.Stages {
		names = append(names, name)
	}
	sort.Strings(names)

	producer := map[string]string{}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return errors.New("pipeline has a stage with empty name")
		}
		st := m.Stages[name]
		if strings.TrimSpace(st.Cmd) == "" {
			return fmt.Errorf("stage %s has no cmd", name)
		}
		for _, out := range st.Outs {
			if prev, ok := producer[out]; ok {
				if prev == name {
					return fmt.Errorf("stage %s declares out %s twice", name, out)
				}
				return fmt.Errorf("out %s is declared by both %s and %s", out, prev, name)
			}
			producer[out] = name
		}
		for res, q := range st.Resources {
			if _, err := resource.ParseQuantity(q); err != nil {
				return fmt.Errorf(
					"stage %s requests %s = %s: %w", name, res, q, err,
				)
			}
		}
	}
	return nil
}

// Params are values loaded from a parameter file.
type Params map[string]any

// LoadParams reads a parameter file.
//
// A missing file is not an error. It loads as empty Params.
func LoadParams(path string) (Params, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Params{}, nil
	}
	if err != nil {
		return nil, err
	}

	p := Params{}
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, fmt.Errorf("broken params file %s: %w", path, err)
	}
	return p, nil
}

// Lookup resolves a dotted key against nested params.
//
// Args:
//
// - key: parameter name. "train.lr" digs into mapping "train" for "lr".
//
// Returns:
//
// - any: the value at the key.
//
// - bool: false when the key does not resolve.
func (p Params) Lookup(key string) (any, bool) {
	var cur any = map[string]any(p)
	for _, part := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Select resolves each key and renders its value as text.
//
// All keys should resolve. Otherwise, it returns error naming the first
// missing one.
func (p Params) Select(keys []string) (map[string]string, error) {
	selected := map[string]string{}
	for _, key := range keys {
		value, ok := p.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("param %s is not defined", key)
		}
		rendered, err := renderValue(value)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", key, err)
		}
		selected[key] = rendered
	}
	return selected, nil
}

// renderValue makes a deterministic textual form of a param value.
//
// yaml renders mappings with sorted keys, so equal values always render equal.
func renderValue(v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}
