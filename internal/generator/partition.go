package generator

import (
	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

const (
	defaultClientName  = "IApiClient"
	fallbackGroupName  = "IDefaultApi"
	endpointMethodName = "Execute"
)

// InterfaceGroup is one generated interface and the operations it declares.
type InterfaceGroup struct {
	Name string
	// Key is the tag (ByTag), the operation key (ByEndpoint) or empty.
	Key     string
	Methods []Method
}

// Method pairs an operation with its final, deduplicated method name.
type Method struct {
	Name string
	// OperationName is the derived name before templating; it seeds names of
	// types synthesized for the operation.
	OperationName string
	Operation     spec.Operation
}

// Partition assigns every operation to exactly one interface group. Groups
// are ordered by first encounter in ops.
func Partition(title string, ops []spec.Operation, p *settings.Prepared, names *NameContext) ([]InterfaceGroup, error) {
	var groups []*InterfaceGroup
	byKey := make(map[string]*InterfaceGroup)

	group := func(key, candidate string) (*InterfaceGroup, error) {
		if g, ok := byKey[key]; ok {
			return g, nil
		}
		name, err := names.Reserve(scopeTypes, candidate)
		if err != nil {
			return nil, err
		}
		g := &InterfaceGroup{Name: name, Key: key}
		byKey[key] = g
		groups = append(groups, g)
		return g, nil
	}

	for _, op := range ops {
		opName := OperationName(op.ID, string(op.Method), op.Path)
		if opName == "" {
			return nil, &GenerationError{Code: NameCollision, Operation: op.Key(), Message: "cannot derive a method name"}
		}

		var (
			g   *InterfaceGroup
			err error
		)
		methodName := p.MethodName(opName)
		switch p.MultipleInterfaces {
		case settings.InterfacesByEndpoint:
			g, err = group(op.Key(), "I"+opName+"Endpoint")
			if p.OperationNameTemplate == "" {
				methodName = endpointMethodName
			}
		case settings.InterfacesByTag:
			key, candidate := "", fallbackGroupName
			if len(op.Tags) > 0 {
				if tag := TypeName(op.Tags[0]); tag != "" {
					key, candidate = op.Tags[0], "I"+tag+"Api"
				}
			}
			g, err = group(key, candidate)
		default:
			candidate := defaultClientName
			if t := TypeName(title); t != "" {
				candidate = "I" + t
			}
			g, err = group("", candidate)
		}
		if err != nil {
			return nil, withOperation(err, op.Key())
		}

		unique, err := names.Reserve("method:"+g.Name, methodName)
		if err != nil {
			return nil, withOperation(err, op.Key())
		}
		g.Methods = append(g.Methods, Method{Name: unique, OperationName: opName, Operation: op})
	}

	out := make([]InterfaceGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out, nil
}
