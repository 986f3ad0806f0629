package spec

// Abstract document model consumed by the generator. Everything here is built
// once by Build and treated as read-only afterwards.

type HTTPMethod string

const (
	GET     HTTPMethod = "get"
	PUT     HTTPMethod = "put"
	POST    HTTPMethod = "post"
	DELETE  HTTPMethod = "delete"
	OPTIONS HTTPMethod = "options"
	HEAD    HTTPMethod = "head"
	PATCH   HTTPMethod = "patch"
	TRACE   HTTPMethod = "trace"
)

type Document struct {
	Title       string
	Version     string
	Description string
	Servers     []string
	// Operations in document order (path order, then method order within a path).
	Operations []Operation
	Schemas    *SchemaArena
}

type ParameterLocation string

const (
	InPath   ParameterLocation = "path"
	InQuery  ParameterLocation = "query"
	InHeader ParameterLocation = "header"
	InBody   ParameterLocation = "body"
	InFile   ParameterLocation = "file"
	InForm   ParameterLocation = "form"
)

type Operation struct {
	ID          string // operationId, possibly empty
	Method      HTTPMethod
	Path        string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter
	// RequestContentTypes lists the request body media types in document order.
	RequestContentTypes []string
	Responses           []Response
	Deprecated          bool
}

// Key identifies the operation independent of its operationId.
func (o Operation) Key() string { return string(o.Method) + " " + o.Path }

type Parameter struct {
	Name        string
	In          ParameterLocation
	Required    bool
	Description string
	Type        TypeRef
	// ContentType is set for body, file and form parameters.
	ContentType string
}

type Response struct {
	Status       string // "200", "4XX", "default"
	Description  string
	ContentTypes []string
	Type         *TypeRef // nil when the response declares no schema
}

// SchemaID is the identity of a named schema inside a SchemaArena.
type SchemaID string

type SchemaKind string

const (
	KindObject    SchemaKind = "object"
	KindArray     SchemaKind = "array"
	KindEnum      SchemaKind = "enum"
	KindPrimitive SchemaKind = "primitive"
)

// TypeRef is an edge to either a named schema (resolved lazily through the
// arena) or an anonymous inline schema.
type TypeRef struct {
	Ref    SchemaID
	Inline *Schema
}

func (t TypeRef) IsZero() bool { return t.Ref == "" && t.Inline == nil }

type Schema struct {
	ID          SchemaID // empty for inline schemas
	Kind        SchemaKind
	Description string
	Deprecated  bool
	Nullable    bool
	// Primitive is the JSON type of primitive and enum schemas; empty means any.
	Primitive string
	Format    string

	Properties []Property
	// AdditionalProperties is false only when the schema forbids extra members.
	AdditionalProperties bool
	// Values is the dictionary value type (additionalProperties schema).
	Values *TypeRef
	Items  *TypeRef
	Enum   []EnumMember
	// Base is the single inherited schema of an allOf composition.
	Base          *TypeRef
	Discriminator *Discriminator
}

type Property struct {
	Name        string
	Type        TypeRef
	Required    bool
	Nullable    bool
	ReadOnly    bool
	Description string
}

type EnumMember struct {
	// Name is an explicit member name (x-enum-varnames), usually empty.
	Name  string
	Value any
}

type Discriminator struct {
	PropertyName string
	Mapping      []DiscriminatorMapping
}

type DiscriminatorMapping struct {
	Value  string
	Target SchemaID
}

// References returns the named schemas directly referenced by s, including
// those reachable through inline sub-schemas, in declaration order.
func (s *Schema) References() []SchemaID {
	if s == nil {
		return nil
	}
	var out []SchemaID
	visit := func(t *TypeRef) {
		if t == nil {
			return
		}
		out = append(out, t.References()...)
	}
	visit(s.Base)
	for i := range s.Properties {
		visit(&s.Properties[i].Type)
	}
	visit(s.Items)
	visit(s.Values)
	if s.Discriminator != nil {
		for _, m := range s.Discriminator.Mapping {
			out = append(out, m.Target)
		}
	}
	return out
}

// References returns the named schemas reachable through t without crossing
// another named schema.
func (t TypeRef) References() []SchemaID {
	if t.Ref != "" {
		return []SchemaID{t.Ref}
	}
	return t.Inline.References()
}

// SchemaArena stores named schemas in document order.
type SchemaArena struct {
	order []SchemaID
	byID  map[SchemaID]*Schema
}

func NewSchemaArena() *SchemaArena {
	return &SchemaArena{byID: make(map[SchemaID]*Schema)}
}

// Add registers s under id. Re-adding an id replaces the schema but keeps its
// original position.
func (a *SchemaArena) Add(id SchemaID, s *Schema) {
	s.ID = id
	if _, ok := a.byID[id]; !ok {
		a.order = append(a.order, id)
	}
	a.byID[id] = s
}

func (a *SchemaArena) Get(id SchemaID) (*Schema, bool) {
	if a == nil {
		return nil, false
	}
	s, ok := a.byID[id]
	return s, ok
}

func (a *SchemaArena) Has(id SchemaID) bool {
	_, ok := a.Get(id)
	return ok
}

// IDs returns every schema identity in document order.
func (a *SchemaArena) IDs() []SchemaID {
	if a == nil {
		return nil
	}
	return append([]SchemaID(nil), a.order...)
}

func (a *SchemaArena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.order)
}
