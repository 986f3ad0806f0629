package settings

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Prepared is a validated, defaulted copy of GenerationSettings with compiled
// patterns. Callers must treat it as read-only.
type Prepared struct {
	GenerationSettings

	PathPatterns []*regexp.Regexp
	KeepPatterns []*regexp.Regexp
	tagSet       map[string]struct{}
}

var (
	namespaceRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
	handlerRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*(<[A-Za-z0-9_., ]+>)?$`)
	identRe     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Prepare validates gs, applies defaults and compiles every pattern. All
// configuration errors surface here, before any operation is evaluated.
func Prepare(gs GenerationSettings) (*Prepared, error) {
	p := &Prepared{GenerationSettings: clone(gs)}
	s := &p.GenerationSettings

	s.Namespace = strings.TrimSpace(s.Namespace)
	if s.Namespace == "" {
		s.Namespace = DefaultNamespace
	}
	if !namespaceRe.MatchString(s.Namespace) {
		return nil, &ConfigurationError{Setting: "namespace", Value: s.Namespace, Reason: "not a valid namespace"}
	}
	s.ContractsNamespace = strings.TrimSpace(s.ContractsNamespace)
	if s.ContractsNamespace == "" {
		s.ContractsNamespace = s.Namespace
	}
	if !namespaceRe.MatchString(s.ContractsNamespace) {
		return nil, &ConfigurationError{Setting: "contractsNamespace", Value: s.ContractsNamespace, Reason: "not a valid namespace"}
	}

	switch s.OutputLayout {
	case "":
		s.OutputLayout = LayoutSingleFile
	case LayoutSingleFile, LayoutMultipleFiles:
	default:
		return nil, &ConfigurationError{Setting: "outputLayout", Value: string(s.OutputLayout), Reason: "expected SingleFile or MultipleFiles"}
	}
	switch s.MultipleInterfaces {
	case "":
		s.MultipleInterfaces = InterfacesUnset
	case InterfacesUnset, InterfacesByEndpoint, InterfacesByTag:
	default:
		return nil, &ConfigurationError{Setting: "multipleInterfaces", Value: string(s.MultipleInterfaces), Reason: "expected Unset, ByEndpoint or ByTag"}
	}
	switch s.ReturnMode {
	case "":
		s.ReturnMode = ReturnRaw
	case ReturnRaw, ReturnWrappedResponse, ReturnObservableStream:
	default:
		return nil, &ConfigurationError{Setting: "returnMode", Value: string(s.ReturnMode), Reason: "expected Raw, WrappedResponse or ObservableStream"}
	}

	if s.InterfaceOnly && s.ContractOnly {
		return nil, &ConfigurationError{Setting: "interfaceOnly", Reason: "cannot be combined with contractOnly"}
	}

	var err error
	if p.PathPatterns, err = compileAll("matchPaths", s.MatchPaths); err != nil {
		return nil, err
	}
	if p.KeepPatterns, err = compileAll("keepSchemaPatterns", s.KeepSchemaPatterns); err != nil {
		return nil, err
	}

	s.Tags = sanitizeList(s.Tags)
	if len(s.Tags) > 0 {
		p.tagSet = make(map[string]struct{}, len(s.Tags))
		for _, t := range s.Tags {
			p.tagSet[t] = struct{}{}
		}
	}
	s.AdditionalNamespaces = sanitizeList(s.AdditionalNamespaces)
	s.ExcludeNamespaces = sanitizeList(s.ExcludeNamespaces)
	for _, ns := range s.AdditionalNamespaces {
		if !namespaceRe.MatchString(ns) {
			return nil, &ConfigurationError{Setting: "additionalNamespaces", Value: ns, Reason: "not a valid namespace"}
		}
	}

	s.OperationNameTemplate = strings.TrimSpace(s.OperationNameTemplate)
	if s.OperationNameTemplate != "" {
		probe := strings.ReplaceAll(s.OperationNameTemplate, "{operationName}", "Operation")
		if !identRe.MatchString(probe) {
			return nil, &ConfigurationError{Setting: "operationNameTemplate", Value: s.OperationNameTemplate, Reason: "does not produce a valid identifier"}
		}
	}

	if s.Registration != nil {
		if err := prepareRegistration(s.Registration); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func prepareRegistration(r *RegistrationSettings) error {
	r.BaseURL = strings.TrimSpace(r.BaseURL)
	if r.BaseURL == "" {
		return &ConfigurationError{Setting: "registration.baseUrl", Reason: "is required when registration is enabled"}
	}
	for i, h := range r.MessageHandlers {
		h = strings.TrimSpace(h)
		if !handlerRe.MatchString(h) {
			return &ConfigurationError{Setting: "registration.messageHandlers[" + strconv.Itoa(i) + "]", Value: h, Reason: "not a valid type name"}
		}
		r.MessageHandlers[i] = h
	}
	if r.FirstBackoffSeconds < 0 {
		return &ConfigurationError{Setting: "registration.firstBackoffSeconds", Value: strconv.FormatFloat(r.FirstBackoffSeconds, 'f', -1, 64), Reason: "must not be negative"}
	}
	if r.MaxRetryCount < 0 {
		return &ConfigurationError{Setting: "registration.maxRetryCount", Value: strconv.Itoa(r.MaxRetryCount), Reason: "must not be negative"}
	}
	if r.UseRetryPolicy {
		if r.FirstBackoffSeconds == 0 {
			r.FirstBackoffSeconds = DefaultFirstBackoffSeconds
		}
		if r.MaxRetryCount == 0 {
			r.MaxRetryCount = DefaultMaxRetryCount
		}
	}
	r.ExtensionMethodName = strings.TrimSpace(r.ExtensionMethodName)
	if r.ExtensionMethodName == "" {
		r.ExtensionMethodName = DefaultExtensionMethodName
	}
	if !identRe.MatchString(r.ExtensionMethodName) {
		return &ConfigurationError{Setting: "registration.extensionMethodName", Value: r.ExtensionMethodName, Reason: "not a valid identifier"}
	}
	return nil
}

// AllowsTags reports whether an operation with tags passes the tag filter.
func (p *Prepared) AllowsTags(tags []string) bool {
	if len(p.tagSet) == 0 {
		return true
	}
	for _, t := range tags {
		if _, ok := p.tagSet[strings.TrimSpace(t)]; ok {
			return true
		}
	}
	return false
}

// MatchesPath reports whether path passes the path filter.
func (p *Prepared) MatchesPath(path string) bool {
	if len(p.PathPatterns) == 0 {
		return true
	}
	for _, re := range p.PathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// KeepsSchema reports whether name matches any keep pattern.
func (p *Prepared) KeepsSchema(name string) bool {
	for _, re := range p.KeepPatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// MethodName applies the operation name template to name.
func (p *Prepared) MethodName(name string) string {
	if p.OperationNameTemplate == "" {
		return name
	}
	return strings.ReplaceAll(p.OperationNameTemplate, "{operationName}", name)
}

func compileAll(setting string, patterns []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &ConfigurationError{Setting: setting, Value: pattern, Reason: fmt.Sprintf("invalid regular expression: %v", err), Cause: err}
		}
		out = append(out, re)
	}
	return out, nil
}

func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func clone(gs GenerationSettings) GenerationSettings {
	out := gs
	out.MatchPaths = append([]string(nil), gs.MatchPaths...)
	out.Tags = append([]string(nil), gs.Tags...)
	out.KeepSchemaPatterns = append([]string(nil), gs.KeepSchemaPatterns...)
	out.AdditionalNamespaces = append([]string(nil), gs.AdditionalNamespaces...)
	out.ExcludeNamespaces = append([]string(nil), gs.ExcludeNamespaces...)
	if gs.Registration != nil {
		r := *gs.Registration
		r.MessageHandlers = append([]string(nil), gs.Registration.MessageHandlers...)
		out.Registration = &r
	}
	return out
}
