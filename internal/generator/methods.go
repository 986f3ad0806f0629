package generator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

const (
	cancellationTokenName = "cancellationToken"
	requestOptionsName    = "options"
	queryParamsName       = "queryParams"
	// dynamicQueryThreshold is the query parameter count from which the
	// parameters are bundled into one object.
	dynamicQueryThreshold = 2
)

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// Interface is a partitioned group with its built methods.
type Interface struct {
	Name    string
	Key     string
	Methods []OperationDescriptor
}

// OperationDescriptor is the rendered shape of one interface method.
type OperationDescriptor struct {
	Name         string
	OperationKey string
	// HTTPMethod is the Refit attribute name: Get, Post, ...
	HTTPMethod  string
	Path        string
	Summary     string
	Remarks     string
	Deprecated  bool
	Multipart   bool
	Accept      []string
	Parameters  []ParameterBinding
	// Overloads are extra signatures, each a full parameter list.
	Overloads [][]ParameterBinding
	Return    ReturnType
	// QueryType is the bundled query object, when dynamic query strings apply.
	QueryType *QueryParamsType
}

type ParameterBinding struct {
	Name     string
	WireName string
	Location spec.ParameterLocation
	Type     string
	// Attributes are rendered inside one pair of brackets, in order.
	Attributes  []string
	Required    bool
	Default     string
	Description string
}

type ReturnType struct {
	// Type is the full C# return type.
	Type string
	// Payload is the response body type, empty when the operation returns none.
	Payload string
	Mode    settings.ReturnMode
}

// QueryParamsType is a generated class carrying every query parameter of an
// operation.
type QueryParamsType struct {
	Name       string
	Properties []QueryProperty
}

type QueryProperty struct {
	Name        string
	WireName    string
	Type        string
	Attributes  []string
	Required    bool
	Description string
}

// BuildInterfaces builds the method descriptors of every group.
func BuildInterfaces(groups []InterfaceGroup, types *TypeMapper, p *settings.Prepared, names *NameContext) ([]Interface, error) {
	out := make([]Interface, 0, len(groups))
	for _, g := range groups {
		iface := Interface{Name: g.Name, Key: g.Key}
		for _, m := range g.Methods {
			d, err := BuildMethod(m, types, p, names)
			if err != nil {
				return nil, withOperation(err, m.Operation.Key())
			}
			iface.Methods = append(iface.Methods, d)
		}
		out = append(out, iface)
	}
	return out, nil
}

// BuildMethod derives the signature of one method.
func BuildMethod(m Method, types *TypeMapper, p *settings.Prepared, names *NameContext) (OperationDescriptor, error) {
	op := m.Operation
	d := OperationDescriptor{
		Name:         m.Name,
		OperationKey: op.Key(),
		HTTPMethod:   PascalCase(string(op.Method)),
		Path:         op.Path,
		Summary:      op.Summary,
		Deprecated:   op.Deprecated,
	}
	if d.Summary == "" {
		d.Summary = op.Description
	} else {
		d.Remarks = op.Description
	}

	ret, err := buildReturn(op, types, p.ReturnMode)
	if err != nil {
		return d, err
	}
	d.Return = ret
	if !p.NoAcceptHeaders {
		d.Accept = acceptTypes(op)
	}

	scope := "param:" + op.Key()
	trailing := ""
	switch {
	case p.UseRequestOptionsParameter:
		trailing = requestOptionsName
	case p.UseCancellationTokens:
		trailing = cancellationTokenName
	}
	if trailing != "" {
		if _, err := names.Reserve(scope, trailing); err != nil {
			return d, err
		}
	}

	var path, query, header, body []spec.Parameter
	for _, param := range op.Parameters {
		switch param.In {
		case spec.InPath:
			path = append(path, param)
		case spec.InQuery:
			query = append(query, param)
		case spec.InHeader:
			if !p.NoOperationHeaders {
				header = append(header, param)
			}
		default:
			body = append(body, param)
			if strings.HasPrefix(param.ContentType, "multipart/") {
				d.Multipart = true
			}
		}
	}
	sortByPlaceholder(path, op.Path)

	var params []ParameterBinding
	for _, param := range path {
		b, err := bindParameter(param, scope, types, p, names)
		if err != nil {
			return d, err
		}
		params = append(params, b)
	}

	if p.UseDynamicQuerystringParameters && len(query) >= dynamicQueryThreshold {
		qt, err := queryParamsType(m.OperationName, query, types, p, names)
		if err != nil {
			return d, err
		}
		d.QueryType = qt
		name, err := names.Reserve(scope, queryParamsName)
		if err != nil {
			return d, err
		}
		params = append(params, ParameterBinding{
			Name:       name,
			Location:   spec.InQuery,
			Type:       qt.Name,
			Attributes: []string{"Query"},
			Required:   true,
		})
		query = nil
	}
	for _, group := range [][]spec.Parameter{query, header, body} {
		for _, param := range group {
			b, err := bindParameter(param, scope, types, p, names)
			if err != nil {
				return d, err
			}
			params = append(params, b)
		}
	}

	if p.UseRequestOptionsParameter {
		var required []ParameterBinding
		for _, b := range params {
			if b.Required || !optionalLocation(b.Location) {
				required = append(required, b)
			}
		}
		options := ParameterBinding{Name: trailing, Type: "IApizrRequestOptions", Attributes: []string{"RequestOptions"}, Required: true}
		d.Parameters = append(params, options)
		if len(required) < len(params) {
			d.Overloads = append(d.Overloads, append(required, options))
		}
		return d, nil
	}

	if p.OptionalNullableParameters {
		params = optionalLast(params)
	}
	if trailing != "" {
		params = append(params, ParameterBinding{Name: trailing, Type: "CancellationToken", Default: "default"})
	}
	d.Parameters = params
	return d, nil
}

func bindParameter(param spec.Parameter, scope string, types *TypeMapper, p *settings.Prepared, names *NameContext) (ParameterBinding, error) {
	td, err := types.Resolve(param.Type, UsageParameter)
	if err != nil {
		return ParameterBinding{}, err
	}
	candidate := ParameterName(param.Name)
	if candidate == "" {
		candidate = "value"
	}
	name, err := names.Reserve(scope, candidate)
	if err != nil {
		return ParameterBinding{}, err
	}
	b := ParameterBinding{
		Name:        name,
		WireName:    param.Name,
		Location:    param.In,
		Type:        td.Name,
		Required:    param.Required,
		Description: param.Description,
	}
	alias := bareIdentifier(name) != param.Name

	switch param.In {
	case spec.InPath:
		if alias {
			b.Attributes = append(b.Attributes, aliasAs(param.Name))
		}
	case spec.InQuery:
		b.Attributes = append(b.Attributes, queryAttribute(td, p))
		if alias {
			b.Attributes = append(b.Attributes, aliasAs(param.Name))
		}
	case spec.InHeader:
		b.Attributes = append(b.Attributes, fmt.Sprintf("Header(%s)", Quote(param.Name)))
	case spec.InBody:
		if param.ContentType == "application/x-www-form-urlencoded" {
			b.Attributes = append(b.Attributes, "Body(BodySerializationMethod.UrlEncoded)")
		} else {
			b.Attributes = append(b.Attributes, "Body")
		}
	case spec.InFile:
		if !strings.HasPrefix(param.ContentType, "multipart/") {
			b.Attributes = append(b.Attributes, "Body")
			b.Type = "System.IO.Stream"
			break
		}
		b.Type = "StreamPart"
		if td.Collection {
			b.Type = "IEnumerable<StreamPart>"
		}
		if alias {
			b.Attributes = append(b.Attributes, aliasAs(param.Name))
		}
	case spec.InForm:
		if alias {
			b.Attributes = append(b.Attributes, aliasAs(param.Name))
		}
	}

	if p.OptionalNullableParameters && !p.UseRequestOptionsParameter && !param.Required && optionalLocation(param.In) {
		b.Type = td.Nullable()
		b.Default = "default"
	}
	return b, nil
}

func queryAttribute(td TypeDescriptor, p *settings.Prepared) string {
	switch {
	case td.Collection:
		return "Query(CollectionFormat.Multi)"
	case td.Date && p.UseIsoDateFormat:
		return `Query(Format = "yyyy-MM-dd")`
	}
	return "Query"
}

func queryParamsType(opName string, query []spec.Parameter, types *TypeMapper, p *settings.Prepared, names *NameContext) (*QueryParamsType, error) {
	name, err := names.Reserve(scopeTypes, opName+"QueryParams")
	if err != nil {
		return nil, err
	}
	qt := &QueryParamsType{Name: name}
	scope := "member:" + name
	if _, err := names.Reserve(scope, name); err != nil {
		return nil, err
	}
	for _, param := range query {
		td, err := types.Resolve(param.Type, UsageParameter)
		if err != nil {
			return nil, err
		}
		candidate := TypeName(param.Name)
		if candidate == "" {
			candidate = "Property"
		}
		member, err := names.Reserve(scope, candidate)
		if err != nil {
			return nil, err
		}
		typ := td.Name
		if !param.Required {
			typ = td.Nullable()
		}
		attrs := []string{queryAttribute(td, p)}
		if member != param.Name {
			attrs = append(attrs, aliasAs(param.Name))
		}
		qt.Properties = append(qt.Properties, QueryProperty{
			Name:        member,
			WireName:    param.Name,
			Type:        typ,
			Attributes:  attrs,
			Required:    param.Required,
			Description: param.Description,
		})
	}
	return qt, nil
}

func optionalLocation(in spec.ParameterLocation) bool {
	return in == spec.InQuery || in == spec.InHeader || in == spec.InForm
}

// optionalLast moves defaulted parameters behind the others, keeping the
// relative order of both partitions.
func optionalLast(params []ParameterBinding) []ParameterBinding {
	out := make([]ParameterBinding, 0, len(params))
	for _, b := range params {
		if b.Default == "" {
			out = append(out, b)
		}
	}
	for _, b := range params {
		if b.Default != "" {
			out = append(out, b)
		}
	}
	return out
}

// sortByPlaceholder orders path parameters as their placeholders appear in
// path. Parameters without a placeholder keep their order at the end.
func sortByPlaceholder(params []spec.Parameter, path string) {
	position := make(map[string]int)
	for i, m := range placeholderRe.FindAllStringSubmatch(path, -1) {
		if _, ok := position[m[1]]; !ok {
			position[m[1]] = i
		}
	}
	rank := func(name string) int {
		if i, ok := position[name]; ok {
			return i
		}
		return len(position)
	}
	sort.SliceStable(params, func(i, j int) bool {
		return rank(params[i].Name) < rank(params[j].Name)
	})
}

func buildReturn(op spec.Operation, types *TypeMapper, mode settings.ReturnMode) (ReturnType, error) {
	r := ReturnType{Mode: mode}
	var success *spec.Response
	for i := range op.Responses {
		resp := &op.Responses[i]
		if !strings.HasPrefix(resp.Status, "2") {
			continue
		}
		if success == nil || resp.Status < success.Status {
			success = resp
		}
	}
	if success != nil && success.Type != nil {
		td, err := types.Resolve(*success.Type, UsageReturn)
		if err != nil {
			return r, err
		}
		r.Payload = td.Name
	}

	switch mode {
	case settings.ReturnWrappedResponse:
		if r.Payload == "" {
			r.Type = "Task<IApiResponse>"
		} else {
			r.Type = fmt.Sprintf("Task<IApiResponse<%s>>", r.Payload)
		}
	case settings.ReturnObservableStream:
		if r.Payload == "" {
			r.Type = "IObservable<System.Reactive.Unit>"
		} else {
			r.Type = fmt.Sprintf("IObservable<%s>", r.Payload)
		}
	default:
		if r.Payload == "" {
			r.Type = "Task"
		} else {
			r.Type = fmt.Sprintf("Task<%s>", r.Payload)
		}
	}
	return r, nil
}

// acceptTypes is the first-seen union of every response's content types.
func acceptTypes(op spec.Operation) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, resp := range op.Responses {
		for _, ct := range resp.ContentTypes {
			if _, ok := seen[ct]; ok {
				continue
			}
			seen[ct] = struct{}{}
			out = append(out, ct)
		}
	}
	return out
}

func aliasAs(wire string) string {
	return fmt.Sprintf("AliasAs(%s)", Quote(wire))
}
