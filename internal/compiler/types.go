// Package compiler models a Vyper compile request and the combined-JSON output
// of the compiler, and provides the binary-backed Compiler used as the
// default compile delegate.
package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultFormat is the vyper output format understood by ParseOutput.
const DefaultFormat = "combined_json"

// Compiler compiles a batch of Vyper sources.
type Compiler interface {
	Compile(ctx context.Context, req *Request) (*Output, error)
}

// Request is a single compile invocation. InputPaths is ordered; every other
// field is passed through to the compiler untouched.
type Request struct {
	InputPaths []string
	Version    string
	Format     string
	Options    map[string]string
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	c := &Request{
		InputPaths: append([]string(nil), r.InputPaths...),
		Version:    r.Version,
		Format:     r.Format,
	}
	if r.Options != nil {
		c.Options = make(map[string]string, len(r.Options))
		for k, v := range r.Options {
			c.Options[k] = v
		}
	}
	return c
}

// Artifact is the compiler output for one source file. Raw holds the full
// object as emitted by the compiler; the decoded fields are a convenience.
type Artifact struct {
	ABI             json.RawMessage `json:"abi"`
	Bytecode        string          `json:"bytecode"`
	BytecodeRuntime string          `json:"bytecode_runtime"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps a copy of the raw object next to the decoded fields.
func (a *Artifact) UnmarshalJSON(data []byte) error {
	type plain Artifact
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Artifact(p)
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the raw object when present.
func (a Artifact) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	type plain Artifact
	return json.Marshal(plain(a))
}

// Output is the result of compiling a batch: one artifact per path key plus
// the compiler version.
type Output struct {
	Version   string
	Contracts map[string]Artifact
}

// Paths returns the artifact keys in sorted order.
func (o *Output) Paths() []string {
	keys := make([]string, 0, len(o.Contracts))
	for k := range o.Contracts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders the flat combined-JSON shape:
// {"version": "...", "<path>": {...}, ...}.
func (o *Output) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(o.Contracts)+1)
	for k, v := range o.Contracts {
		flat[k] = v
	}
	flat["version"] = o.Version
	return json.Marshal(flat)
}

// ParseOutput decodes vyper's combined_json output.
func ParseOutput(data []byte) (*Output, error) {
	var flat map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&flat); err != nil {
		return nil, fmt.Errorf("failed to decode compiler output: %w", err)
	}

	out := &Output{Contracts: make(map[string]Artifact, len(flat))}
	for key, raw := range flat {
		if key == "version" {
			if err := json.Unmarshal(raw, &out.Version); err != nil {
				return nil, fmt.Errorf("failed to decode compiler version: %w", err)
			}
			continue
		}
		var a Artifact
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("failed to decode output for %q: %w", key, err)
		}
		out.Contracts[key] = a
	}
	return out, nil
}
