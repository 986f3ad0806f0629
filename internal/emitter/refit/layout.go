package refit

import (
	"strings"

	"github.com/mark3labs/refitgen/internal/settings"
)

const (
	SingleFileName       = "Output.cs"
	ContractsFileName    = "Contracts.cs"
	InterfacesFileName   = "RefitInterfaces.cs"
	RegistrationFileName = "DependencyInjection.cs"
)

// AutoGeneratedHeader prefixes every artifact unless disabled.
const AutoGeneratedHeader = "// <auto-generated>\n//     This code was generated by " + GeneratorName + ".\n// </auto-generated>"

// Sections are the rendered parts of one run. Empty sections are omitted.
type Sections struct {
	Contracts    string
	Interfaces   string
	Registration string
}

// Artifact is one named output text.
type Artifact struct {
	Name    string
	Content string
}

// Layout arranges sections into artifacts. SingleFile always yields exactly
// one artifact; MultipleFiles yields one per non-empty section.
func Layout(s Sections, p *settings.Prepared) []Artifact {
	header := AutoGeneratedHeader
	if p.NoAutoGeneratedHeader {
		header = ""
	}

	if p.OutputLayout == settings.LayoutMultipleFiles {
		var out []Artifact
		for _, part := range []struct{ name, content string }{
			{ContractsFileName, s.Contracts},
			{InterfacesFileName, s.Interfaces},
			{RegistrationFileName, s.Registration},
		} {
			if strings.TrimSpace(part.content) == "" {
				continue
			}
			out = append(out, Artifact{Name: part.name, Content: join(header, part.content)})
		}
		return out
	}
	return []Artifact{{Name: SingleFileName, Content: join(header, s.Contracts, s.Interfaces, s.Registration)}}
}

// join separates the non-empty parts by exactly one blank line and ends the
// result with a single newline.
func join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.Trim(part, "\n"); part != "" {
			kept = append(kept, part)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n\n") + "\n"
}
