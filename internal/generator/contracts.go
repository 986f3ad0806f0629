package generator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

type ContractKind string

const (
	ContractClass  ContractKind = "class"
	ContractRecord ContractKind = "record"
	ContractEnum   ContractKind = "enum"
)

// OmitCondition mirrors System.Text.Json's JsonIgnoreCondition.
type OmitCondition string

const (
	OmitNever              OmitCondition = "Never"
	OmitWhenWritingDefault OmitCondition = "WhenWritingDefault"
	OmitWhenWritingNull    OmitCondition = "WhenWritingNull"
)

// AdditionalPropertiesName is the member holding undeclared wire properties.
const AdditionalPropertiesName = "AdditionalProperties"

// ContractType describes one generated data contract.
type ContractType struct {
	Name        string
	Schema      spec.SchemaID
	Kind        ContractKind
	Description string
	Deprecated  bool
	// BaseType is the inherited contract, or the collection type a named
	// array or dictionary derives from.
	BaseType   string
	Properties []ContractProperty
	// AdditionalProperties adds the extension-data bag.
	AdditionalProperties bool

	EnumMembers []ContractEnumMember
	StringEnum  bool

	Polymorphic *Polymorphism
}

type ContractProperty struct {
	Name        string
	WireName    string
	Type        string
	Required    bool
	Omit        OmitCondition
	Description string
	// StringEnum selects the string enum converter for the property.
	StringEnum bool
	// Initializer is a C# expression assigned at declaration, or empty.
	Initializer string
}

type ContractEnumMember struct {
	Name      string
	WireValue string
	// Value is the numeric member value as C# source.
	Value string
}

// Polymorphism lists the discriminator variants of a base contract.
type Polymorphism struct {
	PropertyName string
	Variants     []Variant
}

type Variant struct {
	TypeName      string
	Discriminator string
}

// SynthesizeContracts builds a contract for every schema the mapper named,
// in document order.
func SynthesizeContracts(doc *spec.Document, types *TypeMapper, p *settings.Prepared, names *NameContext) ([]ContractType, error) {
	var out []ContractType
	for _, id := range types.Contracts() {
		s, _ := doc.Schemas.Get(id)
		name, _ := types.ContractName(id)
		c, err := synthesize(s, name, types, p, names)
		if err != nil {
			var ge *GenerationError
			if errors.As(err, &ge) && ge.Schema == "" {
				ge.Schema = string(id)
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func synthesize(s *spec.Schema, name string, types *TypeMapper, p *settings.Prepared, names *NameContext) (ContractType, error) {
	c := ContractType{
		Name:        name,
		Schema:      s.ID,
		Kind:        ContractClass,
		Description: s.Description,
		Deprecated:  s.Deprecated,
	}

	switch s.Kind {
	case spec.KindEnum:
		return enumContract(c, s, names)
	case spec.KindArray:
		element := TypeDescriptor{Name: "object"}
		if s.Items != nil {
			var err error
			if element, err = types.Resolve(*s.Items, UsageProperty); err != nil {
				return c, err
			}
		}
		c.BaseType = fmt.Sprintf("System.Collections.ObjectModel.Collection<%s>", element.Name)
		return c, nil
	}

	if p.ImmutableContracts {
		c.Kind = ContractRecord
	}
	scope := "member:" + name
	if _, err := names.Reserve(scope, name); err != nil {
		return c, err
	}

	if s.Base != nil {
		base, err := types.Resolve(*s.Base, UsageProperty)
		if err != nil {
			return c, err
		}
		c.BaseType = base.Name
	} else if s.Values != nil && len(s.Properties) == 0 {
		value, err := types.Resolve(*s.Values, UsageProperty)
		if err != nil {
			return c, err
		}
		c.BaseType = fmt.Sprintf("System.Collections.Generic.Dictionary<string, %s>", value.Name)
		return c, nil
	}

	if s.Base == nil && s.AdditionalProperties && !p.SkipDefaultAdditionalProperties {
		c.AdditionalProperties = true
		if _, err := names.Reserve(scope, AdditionalPropertiesName); err != nil {
			return c, err
		}
	}

	discriminator := ""
	if s.Discriminator != nil {
		if p.UsePolymorphicSerialization {
			discriminator = s.Discriminator.PropertyName
			poly, err := polymorphism(s.Discriminator, types)
			if err != nil {
				return c, err
			}
			c.Polymorphic = poly
		}
	}

	nullableOptional := p.UsePolymorphicSerialization || p.ImmutableContracts
	for _, prop := range s.Properties {
		if discriminator != "" && prop.Name == discriminator {
			continue
		}
		td, err := types.Resolve(prop.Type, UsageProperty)
		if err != nil {
			return c, err
		}
		candidate := TypeName(prop.Name)
		if candidate == "" {
			candidate = "Property"
		}
		member, err := names.Reserve(scope, candidate)
		if err != nil {
			return c, err
		}

		cp := ContractProperty{
			Name:        member,
			WireName:    prop.Name,
			Type:        td.Name,
			Required:    prop.Required,
			Description: prop.Description,
			StringEnum:  td.StringEnum,
		}
		switch {
		case prop.Required:
			cp.Omit = OmitNever
			if prop.Nullable {
				cp.Type = td.Nullable()
			}
			if td.Collection && !prop.Nullable && !p.ImmutableContracts {
				cp.Initializer = fmt.Sprintf("new System.Collections.ObjectModel.Collection<%s>()", td.Element)
			}
		case nullableOptional:
			cp.Omit = OmitWhenWritingNull
			cp.Type = td.Nullable()
		default:
			cp.Omit = OmitWhenWritingDefault
			if prop.Nullable {
				cp.Type = td.Nullable()
			}
		}
		c.Properties = append(c.Properties, cp)
	}
	return c, nil
}

func polymorphism(d *spec.Discriminator, types *TypeMapper) (*Polymorphism, error) {
	poly := &Polymorphism{PropertyName: d.PropertyName}
	for _, m := range d.Mapping {
		td, err := types.Resolve(spec.TypeRef{Ref: m.Target}, UsageProperty)
		if err != nil {
			return nil, err
		}
		poly.Variants = append(poly.Variants, Variant{TypeName: td.Name, Discriminator: m.Value})
	}
	return poly, nil
}

func enumContract(c ContractType, s *spec.Schema, names *NameContext) (ContractType, error) {
	c.Kind = ContractEnum
	c.StringEnum = s.Primitive == "string"
	scope := "enum:" + c.Name
	for i, m := range s.Enum {
		wire := FormatWireValue(m.Value)
		candidate := TypeName(m.Name)
		if candidate == "" {
			candidate = enumMemberName(wire, c.StringEnum)
		}
		name, err := names.Reserve(scope, candidate)
		if err != nil {
			return c, err
		}
		member := ContractEnumMember{Name: name, WireValue: wire, Value: strconv.Itoa(i)}
		if !c.StringEnum {
			member.Value = wire
		}
		c.EnumMembers = append(c.EnumMembers, member)
	}
	return c, nil
}

func enumMemberName(wire string, stringEnum bool) string {
	if !stringEnum {
		if rest, ok := strings.CutPrefix(wire, "-"); ok {
			return "_Minus" + rest
		}
		return "_" + wire
	}
	if name := TypeName(wire); name != "" {
		return name
	}
	return "Value"
}
