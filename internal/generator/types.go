package generator

import (
	"errors"
	"fmt"

	"github.com/mark3labs/refitgen/internal/spec"
)

// TypeUsage selects collection shapes: properties and return values use
// ICollection<T>, parameters use IEnumerable<T>.
type TypeUsage int

const (
	UsageProperty TypeUsage = iota
	UsageParameter
	UsageReturn
)

// TypeDescriptor is a resolved C# type.
type TypeDescriptor struct {
	Name       string
	ValueType  bool
	Enum       bool
	StringEnum bool
	Collection bool
	Binary     bool
	// Date marks string/date schemas, formatted as yyyy-MM-dd in ISO mode.
	Date bool
	// Element is the item type of collections.
	Element string
}

// Nullable returns the type with a nullable marker for value types.
func (t TypeDescriptor) Nullable() string {
	if t.ValueType {
		return t.Name + "?"
	}
	return t.Name
}

// TypeMapper resolves schema references to C# types. It owns the contract
// names of the retained schemas.
type TypeMapper struct {
	arena *spec.SchemaArena
	names map[spec.SchemaID]string
	order []spec.SchemaID
}

// NewTypeMapper reserves a contract name for every retained schema that
// produces a type, in document order.
func NewTypeMapper(doc *spec.Document, kept []spec.SchemaID, names *NameContext) (*TypeMapper, error) {
	m := &TypeMapper{arena: doc.Schemas, names: make(map[spec.SchemaID]string, len(kept))}
	for _, id := range kept {
		s, ok := doc.Schemas.Get(id)
		if !ok {
			return nil, &GenerationError{Code: UnresolvedReference, Schema: string(id)}
		}
		if !producesContract(s) {
			continue
		}
		name, err := names.Reserve(scopeTypes, TypeName(string(id)))
		if err != nil {
			var ge *GenerationError
			if errors.As(err, &ge) {
				ge.Schema = string(id)
			}
			return nil, err
		}
		m.names[id] = name
		m.order = append(m.order, id)
	}
	return m, nil
}

// ContractName returns the generated type name of id.
func (m *TypeMapper) ContractName(id spec.SchemaID) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

// Contracts lists the schemas that produce contract types, in order.
func (m *TypeMapper) Contracts() []spec.SchemaID {
	return append([]spec.SchemaID(nil), m.order...)
}

// producesContract reports whether a named schema becomes a C# type. Named
// primitives (and enums over booleans or fractional numbers) resolve inline.
func producesContract(s *spec.Schema) bool {
	switch s.Kind {
	case spec.KindObject, spec.KindArray:
		return true
	case spec.KindEnum:
		return s.Primitive == "string" || s.Primitive == "integer"
	}
	return false
}

// Resolve maps t to a C# type.
func (m *TypeMapper) Resolve(t spec.TypeRef, usage TypeUsage) (TypeDescriptor, error) {
	if t.Ref != "" {
		s, ok := m.arena.Get(t.Ref)
		if !ok {
			return TypeDescriptor{}, &GenerationError{Code: UnresolvedReference, Schema: string(t.Ref)}
		}
		if name, ok := m.names[t.Ref]; ok {
			d := TypeDescriptor{Name: name}
			if s.Kind == spec.KindEnum {
				d.ValueType = true
				d.Enum = true
				d.StringEnum = s.Primitive == "string"
			}
			return d, nil
		}
		if producesContract(s) {
			return TypeDescriptor{}, &GenerationError{Code: UnresolvedReference, Schema: string(t.Ref), Message: "schema was not retained"}
		}
		return m.inline(s, usage)
	}
	if t.Inline == nil {
		return TypeDescriptor{Name: "object"}, nil
	}
	return m.inline(t.Inline, usage)
}

func (m *TypeMapper) inline(s *spec.Schema, usage TypeUsage) (TypeDescriptor, error) {
	switch s.Kind {
	case spec.KindArray:
		var item TypeDescriptor
		if s.Items != nil {
			var err error
			if item, err = m.Resolve(*s.Items, usage); err != nil {
				return TypeDescriptor{}, err
			}
		} else {
			item = TypeDescriptor{Name: "object"}
		}
		if item.Binary && usage == UsageProperty {
			item.Name = "byte[]"
		}
		collection := "ICollection"
		if usage == UsageParameter {
			collection = "IEnumerable"
		}
		return TypeDescriptor{
			Name:       fmt.Sprintf("%s<%s>", collection, item.Name),
			Collection: true,
			Element:    item.Name,
		}, nil
	case spec.KindObject:
		if s.Values != nil {
			value, err := m.Resolve(*s.Values, UsageProperty)
			if err != nil {
				return TypeDescriptor{}, err
			}
			return TypeDescriptor{Name: fmt.Sprintf("IDictionary<string, %s>", value.Name)}, nil
		}
		return TypeDescriptor{Name: "object"}, nil
	}
	return primitive(s.Primitive, s.Format, usage), nil
}

func primitive(typ, format string, usage TypeUsage) TypeDescriptor {
	switch typ {
	case "string":
		switch format {
		case "date-time":
			return TypeDescriptor{Name: "System.DateTimeOffset", ValueType: true}
		case "date":
			return TypeDescriptor{Name: "System.DateTimeOffset", ValueType: true, Date: true}
		case "time", "duration":
			return TypeDescriptor{Name: "System.TimeSpan", ValueType: true}
		case "uuid", "guid":
			return TypeDescriptor{Name: "System.Guid", ValueType: true}
		case "uri":
			return TypeDescriptor{Name: "System.Uri"}
		case "byte":
			return TypeDescriptor{Name: "byte[]"}
		case "binary":
			if usage == UsageProperty {
				return TypeDescriptor{Name: "byte[]", Binary: true}
			}
			return TypeDescriptor{Name: "System.IO.Stream", Binary: true}
		}
		return TypeDescriptor{Name: "string"}
	case "integer":
		if format == "int64" {
			return TypeDescriptor{Name: "long", ValueType: true}
		}
		return TypeDescriptor{Name: "int", ValueType: true}
	case "number":
		switch format {
		case "float":
			return TypeDescriptor{Name: "float", ValueType: true}
		case "decimal":
			return TypeDescriptor{Name: "decimal", ValueType: true}
		}
		return TypeDescriptor{Name: "double", ValueType: true}
	case "boolean":
		return TypeDescriptor{Name: "bool", ValueType: true}
	}
	return TypeDescriptor{Name: "object"}
}
