// Package wire applies a synthesized contract's JSON encoding rules to
// untyped payloads. It mirrors what the generated C# contract does at
// runtime: declared properties keep contract order and honour their omit
// condition, and unknown properties survive a decode/encode cycle through the
// additional-properties bag.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iancoleman/orderedmap"

	"github.com/mark3labs/refitgen/internal/generator"
)

// ErrMissingRequired is returned by Decode when a required property is absent.
var ErrMissingRequired = errors.New("wire: required property missing")

// Instance is a decoded payload for one contract.
type Instance struct {
	Contract string
	// Properties holds declared properties keyed by wire name. Decoded values
	// are json.RawMessage.
	Properties *orderedmap.OrderedMap
	// Additional holds unknown properties in the order they were read. It is
	// nil when the contract has no bag.
	Additional *orderedmap.OrderedMap
}

// NewInstance returns an empty instance for c.
func NewInstance(c generator.ContractType) *Instance {
	in := &Instance{Contract: c.Name, Properties: newMap()}
	if c.AdditionalProperties {
		in.Additional = newMap()
	}
	return in
}

// Decode reads a JSON object as an instance of c. Unknown properties go to the
// bag when c has one and are dropped otherwise.
func Decode(c generator.ContractType, data []byte) (*Instance, error) {
	if c.Kind == generator.ContractEnum {
		return nil, fmt.Errorf("wire: %s is an enum, not an object contract", c.Name)
	}
	// The ordered map only supplies key order; values stay as the raw bytes
	// read so numbers and nested documents are re-emitted untouched.
	order := newMap()
	if err := json.Unmarshal(data, order); err != nil {
		return nil, fmt.Errorf("wire: decode %s: %w", c.Name, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("wire: decode %s: %w", c.Name, err)
	}

	declared := declaredNames(c)
	in := NewInstance(c)
	for _, key := range order.Keys() {
		v := raw[key]
		switch {
		case declared[key]:
			in.Properties.Set(key, v)
		case in.Additional != nil:
			in.Additional.Set(key, v)
		}
	}

	var missing []string
	for _, p := range c.Properties {
		if !p.Required {
			continue
		}
		if _, ok := in.Properties.Get(p.WireName); !ok {
			missing = append(missing, p.WireName)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingRequired, c.Name, strings.Join(missing, ", "+c.Name+"."))
	}
	return in, nil
}

// Encode writes the instance as c would serialize it.
func (in *Instance) Encode(c generator.ContractType) ([]byte, error) {
	out := newMap()
	declared := declaredNames(c)
	if c.Polymorphic != nil {
		if v, ok := in.Properties.Get(c.Polymorphic.PropertyName); ok {
			out.Set(c.Polymorphic.PropertyName, v)
		}
	}
	for _, p := range c.Properties {
		v, ok := in.Properties.Get(p.WireName)
		if omit(p, v, ok) {
			continue
		}
		out.Set(p.WireName, v)
	}
	if in.Additional != nil && c.AdditionalProperties {
		for _, key := range in.Additional.Keys() {
			if declared[key] {
				continue
			}
			v, _ := in.Additional.Get(key)
			out.Set(key, v)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("wire: encode %s: %w", c.Name, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Set assigns a property, routing unknown names to the bag.
func (in *Instance) Set(c generator.ContractType, name string, v any) error {
	if declaredNames(c)[name] {
		in.Properties.Set(name, v)
		return nil
	}
	if in.Additional == nil {
		return fmt.Errorf("wire: %s has no property %q", c.Name, name)
	}
	in.Additional.Set(name, v)
	return nil
}

func omit(p generator.ContractProperty, v any, present bool) bool {
	switch p.Omit {
	case generator.OmitNever:
		return false
	case generator.OmitWhenWritingNull:
		return !present || isNull(v)
	default:
		return !present || isNull(v) || isDefault(p.Type, v)
	}
}

func isNull(v any) bool {
	if raw, ok := v.(json.RawMessage); ok {
		return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
	}
	return v == nil
}

// isDefault reports whether v is the CLR default of a non-nullable value type.
func isDefault(clrType string, v any) bool {
	if strings.HasSuffix(clrType, "?") {
		return false
	}
	if raw, ok := v.(json.RawMessage); ok {
		v = scalar(raw)
	}
	switch x := v.(type) {
	case bool:
		return !x
	case float64:
		return x == 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	}
	return false
}

// scalar decodes a raw literal, keeping numbers as json.Number. Objects and
// arrays are never a default and come back as nil.
func scalar(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	switch v.(type) {
	case bool, json.Number:
		return v
	}
	return nil
}

func declaredNames(c generator.ContractType) map[string]bool {
	names := make(map[string]bool, len(c.Properties))
	for _, p := range c.Properties {
		names[p.WireName] = true
	}
	if c.Polymorphic != nil {
		names[c.Polymorphic.PropertyName] = true
	}
	return names
}

func newMap() *orderedmap.OrderedMap {
	m := orderedmap.New()
	m.SetEscapeHTML(false)
	return m
}
