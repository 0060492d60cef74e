package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"artiq/cli/internal/actions"
)

var ErrEmptyPlan = errors.New("plan has no commands")

// Plan is a YAML file listing the commands one character should run:
//
//	character: alice
//	commands:
//	  - kind: move
//	    pos: {x: 2, y: 0}
//	  - kind: gathering
//	    requeue: true
type Plan struct {
	Character string         `yaml:"character"`
	Commands  []actions.Spec `yaml:"commands"`
}

func Load(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan: %w", err)
	}
	p, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return Plan{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func Parse(r io.Reader) (Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Plan{}, ErrEmptyPlan
		}
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	p.Character = strings.TrimSpace(p.Character)
	if len(p.Commands) == 0 {
		return Plan{}, ErrEmptyPlan
	}
	return p, nil
}

// Build resolves every spec, reporting the first invalid entry by position.
func (p Plan) Build(ctx context.Context, catalog actions.Catalog) ([]actions.Command, error) {
	out := make([]actions.Command, 0, len(p.Commands))
	for i, spec := range p.Commands {
		cmd, err := actions.Build(ctx, spec, catalog)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i+1, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

// Repeats reports whether any command requeues itself, in which case the plan
// never drains on its own.
func (p Plan) Repeats() bool {
	for _, spec := range p.Commands {
		if spec.Requeue {
			return true
		}
	}
	return false
}
