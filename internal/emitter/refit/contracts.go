package refit

import (
	"fmt"
	"strings"

	"github.com/mark3labs/refitgen/internal/generator"
	"github.com/mark3labs/refitgen/internal/settings"
)

const (
	GeneratorName    = "refitgen"
	GeneratorVersion = "1.0.0"
)

var (
	contractUsings    = []string{"System", "System.Collections.Generic", "System.Text.Json.Serialization"}
	generatedCodeAttr = fmt.Sprintf("[System.CodeDom.Compiler.GeneratedCode(%q, %q)]", GeneratorName, GeneratorVersion)
)

// RenderContracts renders every contract into one namespace block, or ""
// when there is nothing to render.
func RenderContracts(contracts []generator.ContractType, p *settings.Prepared) string {
	if len(contracts) == 0 {
		return ""
	}
	w := newWriter()
	w.block("namespace "+p.ContractsNamespace, func() {
		writeUsings(w, usings(contractUsings, p))
		for _, c := range contracts {
			w.blank()
			if c.Kind == generator.ContractEnum {
				writeEnum(w, c, p)
			} else {
				writeContract(w, c, p)
			}
		}
	})
	return w.String()
}

func writeEnum(w *writer, c generator.ContractType, p *settings.Prepared) {
	w.doc("summary", c.Description)
	w.line(generatedCodeAttr)
	if c.Deprecated {
		w.line("[System.Obsolete]")
	}
	w.block(fmt.Sprintf("%s enum %s", accessibility(p), c.Name), func() {
		for i, m := range c.EnumMembers {
			if i > 0 {
				w.blank()
			}
			if c.StringEnum {
				w.linef("[System.Runtime.Serialization.EnumMember(Value = %s)]", verbatim(m.WireValue))
			}
			w.linef("%s = %s,", m.Name, m.Value)
		}
	})
}

func writeContract(w *writer, c generator.ContractType, p *settings.Prepared) {
	w.doc("summary", c.Description)
	w.line(generatedCodeAttr)
	if c.Deprecated {
		w.line("[System.Obsolete]")
	}
	if c.Polymorphic != nil {
		w.linef("[JsonPolymorphic(TypeDiscriminatorPropertyName = %s)]", generator.Quote(c.Polymorphic.PropertyName))
		for _, v := range c.Polymorphic.Variants {
			w.linef("[JsonDerivedType(typeof(%s), typeDiscriminator: %s)]", v.TypeName, generator.Quote(v.Discriminator))
		}
	}
	header := fmt.Sprintf("%s partial %s %s", accessibility(p), c.Kind, c.Name)
	if c.BaseType != "" {
		header += " : " + c.BaseType
	}
	accessor := "{ get; set; }"
	if c.Kind == generator.ContractRecord {
		accessor = "{ get; init; }"
	}

	w.block(header, func() {
		for _, prop := range c.Properties {
			w.blank()
			w.doc("summary", prop.Description)
			w.linef("[JsonPropertyName(%s)]", generator.Quote(prop.WireName))
			w.linef("[JsonIgnore(Condition = JsonIgnoreCondition.%s)]", prop.Omit)
			if prop.Required {
				w.line("[System.ComponentModel.DataAnnotations.Required]")
			}
			if prop.StringEnum {
				w.line("[JsonConverter(typeof(JsonStringEnumConverter))]")
			}
			decl := fmt.Sprintf("public %s %s %s", prop.Type, prop.Name, accessor)
			if prop.Initializer != "" {
				decl += " = " + prop.Initializer + ";"
			}
			w.line(decl)
		}
		if c.AdditionalProperties {
			w.blank()
			w.line("[JsonExtensionData]")
			w.linef("public IDictionary<string, object> %s %s = new Dictionary<string, object>();", generator.AdditionalPropertiesName, accessor)
		}
	})
}

func accessibility(p *settings.Prepared) string {
	if p.InternalTypeAccessibility {
		return "internal"
	}
	return "public"
}

// usings applies the namespace exclusions to defaults and appends the
// additional namespaces, without duplicates.
func usings(defaults []string, p *settings.Prepared, extra ...string) []string {
	excluded := make(map[string]struct{}, len(p.ExcludeNamespaces))
	for _, ns := range p.ExcludeNamespaces {
		excluded[ns] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(ns string) {
		if ns == "" {
			return
		}
		if _, ok := excluded[ns]; ok {
			return
		}
		if _, ok := seen[ns]; ok {
			return
		}
		seen[ns] = struct{}{}
		out = append(out, ns)
	}
	for _, ns := range defaults {
		add(ns)
	}
	for _, ns := range extra {
		add(ns)
	}
	for _, ns := range p.AdditionalNamespaces {
		add(ns)
	}
	return out
}

func writeUsings(w *writer, namespaces []string) {
	for _, ns := range namespaces {
		w.linef("using %s;", ns)
	}
}

// joinAttributes renders attrs inside a single pair of brackets.
func joinAttributes(attrs []string) string {
	if len(attrs) == 0 {
		return ""
	}
	return "[" + strings.Join(attrs, ", ") + "]"
}
