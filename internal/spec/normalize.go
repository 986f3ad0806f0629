package spec

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// BuildOption configures how a Document is built from a loaded source.
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger zerolog.Logger
}

// WithBuildLogger sets the logger used for skipped constructs.
func WithBuildLogger(logger zerolog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = logger }
}

var methodOrder = []HTTPMethod{GET, PUT, POST, DELETE, OPTIONS, HEAD, PATCH, TRACE}

// Build converts a loaded OpenAPI document into the abstract Document model.
// Operations and schemas keep the order of the source text. Inline enums and
// objects are hoisted into named schemas so every generated type has a name.
// References are recorded by name and never followed, so cyclic documents
// are safe; a reference to a missing schema is kept as-is for the generator
// to report.
func Build(src *Source, opts ...BuildOption) (*Document, error) {
	if src == nil || src.Doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	cfg := &buildConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	b := &builder{
		doc:   src.Doc,
		root:  parseNodeTree(src.Raw),
		arena: NewSchemaArena(),
		taken: make(map[string]struct{}),
		log:   cfg.logger,
	}

	out := &Document{Schemas: b.arena}
	if info := src.Doc.Info; info != nil {
		out.Title = strings.TrimSpace(info.Title)
		out.Version = strings.TrimSpace(info.Version)
		out.Description = strings.TrimSpace(info.Description)
	}
	for _, s := range src.Doc.Servers {
		if s != nil && strings.TrimSpace(s.URL) != "" {
			out.Servers = append(out.Servers, strings.TrimSpace(s.URL))
		}
	}

	b.components()
	out.Operations = b.operations()
	b.implicitMappings()

	return out, nil
}

type builder struct {
	doc   *openapi3.T
	root  *yaml.Node
	arena *SchemaArena
	taken map[string]struct{}
	log   zerolog.Logger
}

func (b *builder) componentsNode() *yaml.Node {
	if n := walk(b.root, "components", "schemas"); n != nil {
		return n
	}
	return child(b.root, "definitions")
}

func (b *builder) components() {
	if b.doc.Components == nil || len(b.doc.Components.Schemas) == 0 {
		return
	}
	schemas := b.doc.Components.Schemas
	node := b.componentsNode()
	names := orderedKeys(schemas, node)
	for _, name := range names {
		b.taken[name] = struct{}{}
	}
	// reserve every slot first so hoisted schemas follow the components
	for _, name := range names {
		if schemas[name] != nil {
			b.arena.Add(SchemaID(name), &Schema{})
		}
	}
	for _, name := range names {
		ref := schemas[name]
		if ref == nil {
			continue
		}
		id := SchemaID(name)
		slot, _ := b.arena.Get(id)
		var s *Schema
		switch {
		case ref.Ref != "":
			// alias of another component
			target := refName(ref.Ref)
			s = &Schema{Kind: KindObject, Base: &TypeRef{Ref: target}, AdditionalProperties: true}
		case ref.Value == nil:
			s = &Schema{Kind: KindObject, AdditionalProperties: true}
		default:
			s = b.convert(ref.Value, child(node, name), name)
		}
		*slot = *s
		slot.ID = id
	}
}

// hoist stores s under a fresh name derived from hint.
func (b *builder) hoist(s *Schema, hint string) SchemaID {
	base := hintName(hint)
	if base == "" {
		base = "Anonymous"
	}
	name := base
	for i := 2; ; i++ {
		if _, used := b.taken[name]; !used {
			break
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
	b.taken[name] = struct{}{}
	id := SchemaID(name)
	b.arena.Add(id, s)
	return id
}

func (b *builder) typeRef(ref *openapi3.SchemaRef, node *yaml.Node, hint string) TypeRef {
	if ref == nil {
		return TypeRef{Inline: &Schema{Kind: KindPrimitive, AdditionalProperties: true}}
	}
	if ref.Ref != "" {
		return TypeRef{Ref: refName(ref.Ref)}
	}
	if ref.Value == nil {
		return TypeRef{Inline: &Schema{Kind: KindPrimitive, AdditionalProperties: true}}
	}
	s := b.convert(ref.Value, node, hint)
	if s.Kind == KindEnum || (s.Kind == KindObject && (len(s.Properties) > 0 || s.Base != nil)) {
		return TypeRef{Ref: b.hoist(s, hint)}
	}
	return TypeRef{Inline: s}
}

func (b *builder) convert(v *openapi3.Schema, node *yaml.Node, hint string) *Schema {
	s := &Schema{
		Description:          strings.TrimSpace(v.Description),
		Deprecated:           v.Deprecated,
		Nullable:             v.Nullable,
		Primitive:            strings.TrimSpace(v.Type),
		Format:               strings.TrimSpace(v.Format),
		AdditionalProperties: true,
	}
	if has := v.AdditionalProperties.Has; has != nil && !*has {
		s.AdditionalProperties = false
	}

	switch {
	case len(v.Enum) > 0:
		s.Kind = KindEnum
		b.enumMembers(s, v)
	case v.Type == "array":
		s.Kind = KindArray
		items := b.typeRef(v.Items, child(node, "items"), hint+"Item")
		s.Items = &items
	case v.Type == "object" || len(v.Properties) > 0 || len(v.AllOf) > 0 || v.AdditionalProperties.Schema != nil:
		s.Kind = KindObject
		s.Primitive = ""
		b.mergeObject(s, v, node, hint, make(map[SchemaID]bool))
	default:
		// scalars, and oneOf/anyOf compositions which surface as untyped values
		s.Kind = KindPrimitive
		if len(v.OneOf) > 0 || len(v.AnyOf) > 0 {
			s.Primitive = ""
		}
	}
	return s
}

func (b *builder) enumMembers(s *Schema, v *openapi3.Schema) {
	var names []string
	if raw, ok := v.Extensions["x-enum-varnames"].([]any); ok {
		for _, n := range raw {
			str, _ := n.(string)
			names = append(names, str)
		}
	}
	for i, value := range v.Enum {
		if value == nil {
			s.Nullable = true
			continue
		}
		m := EnumMember{Value: value}
		if i < len(names) {
			m.Name = names[i]
		}
		s.Enum = append(s.Enum, m)
	}
	if s.Primitive != "" || len(s.Enum) == 0 {
		return
	}
	switch first := s.Enum[0].Value.(type) {
	case string:
		s.Primitive = "string"
	case bool:
		s.Primitive = "boolean"
	case float64:
		if first == float64(int64(first)) {
			s.Primitive = "integer"
		} else {
			s.Primitive = "number"
		}
	case int, int64:
		s.Primitive = "integer"
	}
}

// mergeObject folds v (and its allOf members) into s. The first referenced
// allOf member becomes the base type; the rest are flattened. flattened holds
// the references already folded in, so allOf cycles are merged once.
func (b *builder) mergeObject(s *Schema, v *openapi3.Schema, node *yaml.Node, hint string, flattened map[SchemaID]bool) {
	allOfNode := child(node, "allOf")
	for i, member := range v.AllOf {
		if member == nil {
			continue
		}
		if member.Ref != "" {
			ref := refName(member.Ref)
			if s.Base == nil {
				s.Base = &TypeRef{Ref: ref}
				continue
			}
			if member.Value != nil && !flattened[ref] {
				flattened[ref] = true
				b.mergeObject(s, member.Value, child(b.componentsNode(), string(ref)), hint, flattened)
			}
			continue
		}
		if member.Value != nil {
			b.mergeObject(s, member.Value, item(allOfNode, i), hint, flattened)
		}
	}

	if len(v.Properties) > 0 {
		required := make(map[string]struct{}, len(v.Required))
		for _, r := range v.Required {
			required[r] = struct{}{}
		}
		propsNode := child(node, "properties")
		for _, name := range orderedKeys(v.Properties, propsNode) {
			pref := v.Properties[name]
			_, req := required[name]
			prop := Property{
				Name:     name,
				Type:     b.typeRef(pref, child(propsNode, name), hint+hintName(name)),
				Required: req,
			}
			if pref != nil && pref.Value != nil {
				prop.Nullable = pref.Value.Nullable
				prop.ReadOnly = pref.Value.ReadOnly
				if pref.Ref == "" {
					prop.Description = strings.TrimSpace(pref.Value.Description)
				}
			}
			s.setProperty(prop)
		}
	} else if len(v.Required) > 0 {
		// required list without properties tightens inherited members
		for _, r := range v.Required {
			for i := range s.Properties {
				if s.Properties[i].Name == r {
					s.Properties[i].Required = true
				}
			}
		}
	}

	if ap := v.AdditionalProperties; ap.Schema != nil {
		values := b.typeRef(ap.Schema, child(node, "additionalProperties"), hint+"Value")
		s.Values = &values
	} else if ap.Has != nil && !*ap.Has {
		s.AdditionalProperties = false
	}

	if d := v.Discriminator; d != nil && s.Discriminator == nil {
		disc := &Discriminator{PropertyName: d.PropertyName}
		for _, value := range orderedKeys(d.Mapping, walk(node, "discriminator", "mapping")) {
			disc.Mapping = append(disc.Mapping, DiscriminatorMapping{Value: value, Target: refName(d.Mapping[value])})
		}
		s.Discriminator = disc
	}
}

func (s *Schema) setProperty(p Property) {
	for i := range s.Properties {
		if s.Properties[i].Name == p.Name {
			s.Properties[i] = p
			return
		}
	}
	s.Properties = append(s.Properties, p)
}

// implicitMappings fills discriminators without an explicit mapping with the
// schemas that inherit from them, keyed by schema name.
func (b *builder) implicitMappings() {
	for _, id := range b.arena.IDs() {
		s, _ := b.arena.Get(id)
		if s.Discriminator == nil || len(s.Discriminator.Mapping) > 0 {
			continue
		}
		for _, other := range b.arena.IDs() {
			o, _ := b.arena.Get(other)
			if o.Base != nil && o.Base.Ref == id {
				s.Discriminator.Mapping = append(s.Discriminator.Mapping, DiscriminatorMapping{Value: string(other), Target: other})
			}
		}
	}
}

func (b *builder) operations() []Operation {
	if len(b.doc.Paths) == 0 {
		return nil
	}
	pathsNode := child(b.root, "paths")
	var out []Operation
	for _, p := range orderedKeys(b.doc.Paths, pathsNode) {
		pathItem := b.doc.Paths[p]
		if pathItem == nil {
			continue
		}
		itemNode := child(pathsNode, p)
		ops := make(map[string]*openapi3.Operation)
		for m, op := range pathItem.Operations() {
			if op != nil {
				ops[strings.ToLower(m)] = op
			}
		}
		for _, m := range methodsInOrder(ops, itemNode) {
			out = append(out, b.operation(p, HTTPMethod(m), pathItem, ops[m], itemNode, child(itemNode, m)))
		}
	}
	return out
}

func methodsInOrder(ops map[string]*openapi3.Operation, itemNode *yaml.Node) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, k := range keysOf(itemNode) {
		k = strings.ToLower(k)
		if _, ok := ops[k]; ok {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	for _, m := range methodOrder {
		if _, ok := ops[string(m)]; ok {
			if _, dup := seen[string(m)]; !dup {
				out = append(out, string(m))
			}
		}
	}
	return out
}

func (b *builder) operation(p string, method HTTPMethod, pathItem *openapi3.PathItem, op *openapi3.Operation, itemNode, opNode *yaml.Node) Operation {
	o := Operation{
		ID:          strings.TrimSpace(op.OperationID),
		Method:      method,
		Path:        p,
		Summary:     strings.TrimSpace(op.Summary),
		Description: strings.TrimSpace(op.Description),
		Deprecated:  op.Deprecated,
	}
	for _, t := range op.Tags {
		if t = strings.TrimSpace(t); t != "" {
			o.Tags = append(o.Tags, t)
		}
	}
	hint := o.ID
	if hint == "" {
		hint = string(method) + " " + p
	}

	o.Parameters = b.parameters(pathItem.Parameters, op.Parameters, child(itemNode, "parameters"), child(opNode, "parameters"), o.Key())
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		body, types := b.requestBody(op.RequestBody.Value, opNode, hint)
		o.Parameters = append(o.Parameters, body...)
		o.RequestContentTypes = types
	}
	o.Responses = b.responses(op.Responses, child(opNode, "responses"), hint)
	return o
}

func (b *builder) parameters(pathLevel, opLevel openapi3.Parameters, pathSeq, opSeq *yaml.Node, opKey string) []Parameter {
	var out []Parameter
	index := make(map[string]int)
	add := func(pref *openapi3.ParameterRef, seq *yaml.Node) {
		if pref == nil || pref.Value == nil {
			return
		}
		pv := pref.Value
		var in ParameterLocation
		switch strings.ToLower(pv.In) {
		case openapi3.ParameterInPath:
			in = InPath
		case openapi3.ParameterInQuery:
			in = InQuery
		case openapi3.ParameterInHeader:
			in = InHeader
		default:
			b.log.Debug().Str("operation", opKey).Str("parameter", pv.Name).Str("in", pv.In).Msg("skipping unsupported parameter location")
			return
		}
		node := findParamNode(seq, pv.Name, pv.In)
		schemaRef := pv.Schema
		schemaNode := child(node, "schema")
		if schemaRef == nil {
			for _, ct := range orderedKeys(pv.Content, child(node, "content")) {
				if mt := pv.Content[ct]; mt != nil && mt.Schema != nil {
					schemaRef = mt.Schema
					schemaNode = walk(node, "content", ct, "schema")
					break
				}
			}
		}
		param := Parameter{
			Name:        strings.TrimSpace(pv.Name),
			In:          in,
			Required:    pv.Required || in == InPath,
			Description: strings.TrimSpace(pv.Description),
			Type:        b.typeRef(schemaRef, schemaNode, pv.Name),
		}
		key := string(in) + ":" + param.Name
		if i, ok := index[key]; ok {
			out[i] = param
			return
		}
		index[key] = len(out)
		out = append(out, param)
	}
	for _, pref := range pathLevel {
		add(pref, pathSeq)
	}
	for _, pref := range opLevel {
		add(pref, opSeq)
	}
	return out
}

func (b *builder) requestBody(rb *openapi3.RequestBody, opNode *yaml.Node, hint string) ([]Parameter, []string) {
	contentNode := walk(opNode, "requestBody", "content")
	types := orderedKeys(rb.Content, contentNode)
	if len(types) == 0 {
		return nil, nil
	}
	primary := preferredContentType(types)
	mt := rb.Content[primary]
	var schemaRef *openapi3.SchemaRef
	if mt != nil {
		schemaRef = mt.Schema
	}
	schemaNode := walk(contentNode, primary, "schema")
	if schemaNode == nil {
		// swagger 2 keeps the body schema on the body parameter
		if n := findBodyParamNode(child(opNode, "parameters")); n != nil {
			schemaNode = child(n, "schema")
		}
	}

	switch {
	case strings.HasPrefix(primary, "multipart/"):
		return b.multipartParts(rb, schemaRef, schemaNode, primary, hint), types
	case primary == "application/octet-stream" || isBinary(schemaRef):
		return []Parameter{{
			Name:        "body",
			In:          InFile,
			Required:    rb.Required,
			Description: strings.TrimSpace(rb.Description),
			Type:        TypeRef{Inline: &Schema{Kind: KindPrimitive, Primitive: "string", Format: "binary", AdditionalProperties: true}},
			ContentType: primary,
		}}, types
	}
	return []Parameter{{
		Name:        "body",
		In:          InBody,
		Required:    rb.Required,
		Description: strings.TrimSpace(rb.Description),
		Type:        b.typeRef(schemaRef, schemaNode, hint+"Body"),
		ContentType: primary,
	}}, types
}

func (b *builder) multipartParts(rb *openapi3.RequestBody, ref *openapi3.SchemaRef, node *yaml.Node, contentType, hint string) []Parameter {
	if ref == nil || ref.Value == nil {
		return nil
	}
	v := ref.Value
	if ref.Ref != "" {
		node = child(b.componentsNode(), string(refName(ref.Ref)))
	}
	required := make(map[string]struct{}, len(v.Required))
	for _, r := range v.Required {
		required[r] = struct{}{}
	}
	propsNode := child(node, "properties")
	var out []Parameter
	for _, name := range orderedKeys(v.Properties, propsNode) {
		pref := v.Properties[name]
		_, req := required[name]
		param := Parameter{
			Name:        name,
			In:          InForm,
			Required:    req,
			ContentType: contentType,
			Type:        b.typeRef(pref, child(propsNode, name), hint+hintName(name)),
		}
		if isBinary(pref) || (pref != nil && pref.Value != nil && pref.Value.Type == "array" && isBinary(pref.Value.Items)) {
			param.In = InFile
		}
		if pref != nil && pref.Value != nil && pref.Ref == "" {
			param.Description = strings.TrimSpace(pref.Value.Description)
		}
		out = append(out, param)
	}
	return out
}

func (b *builder) responses(responses openapi3.Responses, node *yaml.Node, hint string) []Response {
	var out []Response
	for _, status := range orderedKeys(responses, node) {
		rref := responses[status]
		if rref == nil || rref.Value == nil {
			continue
		}
		resp := Response{Status: status}
		if rref.Value.Description != nil {
			resp.Description = strings.TrimSpace(*rref.Value.Description)
		}
		respNode := child(node, status)
		contentNode := child(respNode, "content")
		resp.ContentTypes = orderedKeys(rref.Value.Content, contentNode)
		if len(resp.ContentTypes) > 0 {
			primary := preferredContentType(resp.ContentTypes)
			if mt := rref.Value.Content[primary]; mt != nil && mt.Schema != nil {
				schemaNode := walk(contentNode, primary, "schema")
				if schemaNode == nil {
					schemaNode = child(respNode, "schema")
				}
				respHint := hint + "Response"
				if !isSuccess(status) {
					respHint = hint + status + "Response"
				}
				t := b.typeRef(mt.Schema, schemaNode, respHint)
				resp.Type = &t
			}
		}
		out = append(out, resp)
	}
	return out
}

func findBodyParamNode(seq *yaml.Node) *yaml.Node {
	seq = deref(seq)
	if seq == nil {
		return nil
	}
	for _, n := range seq.Content {
		if in := child(n, "in"); in != nil && in.Value == "body" {
			return deref(n)
		}
	}
	return nil
}

// preferredContentType picks JSON when offered, otherwise the first type.
func preferredContentType(types []string) string {
	for _, t := range types {
		if t == "application/json" {
			return t
		}
	}
	for _, t := range types {
		if strings.HasSuffix(t, "+json") || strings.HasSuffix(t, "/json") {
			return t
		}
	}
	return types[0]
}

func isBinary(ref *openapi3.SchemaRef) bool {
	return ref != nil && ref.Value != nil && ref.Value.Type == "string" && ref.Value.Format == "binary"
}

func isSuccess(status string) bool {
	return len(status) == 3 && status[0] == '2'
}

// refName extracts the schema name from a JSON reference such as
// "#/components/schemas/Pet" or "common.yaml#/definitions/Error".
func refName(ref string) SchemaID {
	name := ref
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		name = ref[i+1:]
	}
	name = strings.NewReplacer("~1", "/", "~0", "~").Replace(name)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return SchemaID(name)
}

// hintName turns free text into a compact PascalCase name fragment used for
// hoisted schema identities.
func hintName(s string) string {
	var sb strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
