package generator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxSuffix bounds numeric disambiguation; reaching it is a NameCollision.
const maxSuffix = 10000

const scopeTypes = "types"

// NameContext hands out unique identifiers per scope. Collisions receive a
// numeric suffix (Name2, Name3, ...) in first-encounter order. A context
// belongs to a single run and is never shared.
type NameContext struct {
	scopes map[string]map[string]struct{}
}

func NewNameContext() *NameContext {
	return &NameContext{scopes: make(map[string]map[string]struct{})}
}

// Reserve claims name (or the first free suffixed variant) in scope.
func (c *NameContext) Reserve(scope, name string) (string, error) {
	if name == "" {
		return "", &GenerationError{Code: NameCollision, Message: "cannot derive an identifier"}
	}
	used, ok := c.scopes[scope]
	if !ok {
		used = make(map[string]struct{})
		c.scopes[scope] = used
	}
	candidate := name
	for i := 2; ; i++ {
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate, nil
		}
		if i > maxSuffix {
			return "", &GenerationError{Code: NameCollision, Name: name, Message: "suffix space exhausted"}
		}
		candidate = name + strconv.Itoa(i)
	}
}

// Taken reports whether name is already claimed in scope.
func (c *NameContext) Taken(scope, name string) bool {
	_, ok := c.scopes[scope][name]
	return ok
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// PascalCase joins the words of s, upper-casing the first letter of each
// and leaving the rest untouched ("find-pets byStatus" -> "FindPetsByStatus").
func PascalCase(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	var sb strings.Builder
	for _, w := range splitWords(s) {
		sb.WriteString(caser.String(w))
	}
	return sb.String()
}

// TypeName returns a C# type or member identifier for s, or "" when s has
// no usable characters.
func TypeName(s string) string {
	name := PascalCase(s)
	if name == "" {
		return ""
	}
	if r := []rune(name)[0]; unicode.IsDigit(r) {
		name = "_" + name
	}
	return name
}

// ParameterName keeps the wire name recognizable: invalid characters become
// underscores, the first letter is lowered and keywords are escaped.
func ParameterName(s string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	name := strings.Trim(sb.String(), "_")
	if name == "" {
		return ""
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	name = string(runes)
	if unicode.IsDigit(runes[0]) {
		name = "_" + name
	}
	return EscapeKeyword(name)
}

// EscapeKeyword prefixes C# reserved words with '@'.
func EscapeKeyword(name string) string {
	if _, ok := csharpKeywords[name]; ok {
		return "@" + name
	}
	return name
}

// Quote renders s as a regular C# string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// bareIdentifier strips a keyword escape.
func bareIdentifier(name string) string {
	return strings.TrimPrefix(name, "@")
}

// OperationName derives the base method name of op: its operationId, or the
// HTTP method followed by the path segments (GET /pet/{petId} -> GetPetByPetId).
func OperationName(id, method, path string) string {
	if name := TypeName(id); name != "" {
		return name
	}
	var sb strings.Builder
	sb.WriteString(PascalCase(method))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			sb.WriteString("By")
			sb.WriteString(PascalCase(seg[1 : len(seg)-1]))
			continue
		}
		sb.WriteString(PascalCase(seg))
	}
	return TypeName(sb.String())
}

// FormatWireValue renders an enum wire value exactly as it appears on the
// wire.
func FormatWireValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

var csharpKeywords = map[string]struct{}{
	"abstract": {}, "as": {}, "base": {}, "bool": {}, "break": {}, "byte": {}, "case": {}, "catch": {},
	"char": {}, "checked": {}, "class": {}, "const": {}, "continue": {}, "decimal": {}, "default": {},
	"delegate": {}, "do": {}, "double": {}, "else": {}, "enum": {}, "event": {}, "explicit": {},
	"extern": {}, "false": {}, "finally": {}, "fixed": {}, "float": {}, "for": {}, "foreach": {},
	"goto": {}, "if": {}, "implicit": {}, "in": {}, "int": {}, "interface": {}, "internal": {}, "is": {},
	"lock": {}, "long": {}, "namespace": {}, "new": {}, "null": {}, "object": {}, "operator": {},
	"out": {}, "override": {}, "params": {}, "private": {}, "protected": {}, "public": {},
	"readonly": {}, "ref": {}, "return": {}, "sbyte": {}, "sealed": {}, "short": {}, "sizeof": {},
	"stackalloc": {}, "static": {}, "string": {}, "struct": {}, "switch": {}, "this": {}, "throw": {},
	"true": {}, "try": {}, "typeof": {}, "uint": {}, "ulong": {}, "unchecked": {}, "unsafe": {},
	"ushort": {}, "using": {}, "virtual": {}, "void": {}, "volatile": {}, "while": {},
}
