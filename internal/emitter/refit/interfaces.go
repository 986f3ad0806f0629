package refit

import (
	"fmt"
	"strings"

	"github.com/mark3labs/refitgen/internal/generator"
	"github.com/mark3labs/refitgen/internal/settings"
)

var interfaceUsings = []string{
	"System",
	"System.Collections.Generic",
	"System.Threading",
	"System.Threading.Tasks",
	"Refit",
}

const requestOptionsNamespace = "Apizr.Configuring.Request"

// RenderInterfaces renders the Refit interfaces and any query parameter
// classes. It returns the source and the interface names in render order;
// both are empty when there are no interfaces.
func RenderInterfaces(ifaces []generator.Interface, p *settings.Prepared) (string, []string) {
	if len(ifaces) == 0 {
		return "", nil
	}
	var extra []string
	if p.ContractsNamespace != p.Namespace {
		extra = append(extra, p.ContractsNamespace)
	}
	if p.UseRequestOptionsParameter {
		extra = append(extra, requestOptionsNamespace)
	}

	names := make([]string, 0, len(ifaces))
	w := newWriter()
	w.block("namespace "+p.Namespace, func() {
		writeUsings(w, usings(interfaceUsings, p, extra...))
		for _, iface := range ifaces {
			w.blank()
			writeInterface(w, iface, p)
			names = append(names, iface.Name)
		}
		for _, iface := range ifaces {
			for _, m := range iface.Methods {
				if m.QueryType != nil {
					w.blank()
					writeQueryParams(w, m.QueryType, p)
				}
			}
		}
	})
	return w.String(), names
}

func writeInterface(w *writer, iface generator.Interface, p *settings.Prepared) {
	w.line(generatedCodeAttr)
	w.block(fmt.Sprintf("%s partial interface %s", accessibility(p), iface.Name), func() {
		for _, m := range iface.Methods {
			w.blank()
			writeMethod(w, m, m.Parameters)
			for _, overload := range m.Overloads {
				w.blank()
				writeMethod(w, m, overload)
			}
		}
	})
}

func writeMethod(w *writer, m generator.OperationDescriptor, params []generator.ParameterBinding) {
	w.doc("summary", m.Summary)
	w.doc("remarks", m.Remarks)
	for _, param := range params {
		w.doc("param", param.Description, fmt.Sprintf("name=%q", strings.TrimPrefix(param.Name, "@")))
	}
	if m.Deprecated {
		w.line("[System.Obsolete]")
	}
	if len(m.Accept) > 0 {
		w.linef("[Headers(%s)]", generator.Quote("Accept: "+strings.Join(m.Accept, ", ")))
	}
	if m.Multipart {
		w.line("[Multipart]")
	}
	w.linef("[%s(%s)]", m.HTTPMethod, generator.Quote(m.Path))

	args := make([]string, 0, len(params))
	for _, param := range params {
		arg := param.Type + " " + param.Name
		if attrs := joinAttributes(param.Attributes); attrs != "" {
			arg = attrs + " " + arg
		}
		if param.Default != "" {
			arg += " = " + param.Default
		}
		args = append(args, arg)
	}
	w.linef("%s %s(%s);", m.Return.Type, m.Name, strings.Join(args, ", "))
}

func writeQueryParams(w *writer, qt *generator.QueryParamsType, p *settings.Prepared) {
	w.line(generatedCodeAttr)
	w.block(fmt.Sprintf("%s partial class %s", accessibility(p), qt.Name), func() {
		for _, prop := range qt.Properties {
			w.blank()
			w.doc("summary", prop.Description)
			if attrs := joinAttributes(prop.Attributes); attrs != "" {
				w.line(attrs)
			}
			w.linef("public %s %s { get; set; }", prop.Type, prop.Name)
		}
	})
}
