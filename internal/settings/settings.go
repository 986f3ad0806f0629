package settings

// InterfaceMode selects how operations are partitioned into interfaces.
type InterfaceMode string

const (
	InterfacesUnset      InterfaceMode = "Unset"
	InterfacesByEndpoint InterfaceMode = "ByEndpoint"
	InterfacesByTag      InterfaceMode = "ByTag"
)

// ReturnMode selects the return shape applied uniformly to every method.
type ReturnMode string

const (
	ReturnRaw              ReturnMode = "Raw"
	ReturnWrappedResponse  ReturnMode = "WrappedResponse"
	ReturnObservableStream ReturnMode = "ObservableStream"
)

// OutputLayout selects whether sections are concatenated or split.
type OutputLayout string

const (
	LayoutSingleFile    OutputLayout = "SingleFile"
	LayoutMultipleFiles OutputLayout = "MultipleFiles"
)

const (
	DefaultNamespace           = "GeneratedCode"
	DefaultExtensionMethodName = "ConfigureRefitClients"
	DefaultFirstBackoffSeconds = 1.0
	DefaultMaxRetryCount       = 6
)

// GenerationSettings is the full set of knobs for one generation run. The zero
// value is usable: empty fields fall back to the documented defaults in Prepare.
type GenerationSettings struct {
	Namespace          string `json:"namespace,omitempty" yaml:"namespace,omitempty" jsonschema_description:"Namespace of the generated interfaces. Defaults to GeneratedCode."`
	ContractsNamespace string `json:"contractsNamespace,omitempty" yaml:"contractsNamespace,omitempty" jsonschema_description:"Namespace of the generated contracts. Defaults to the namespace."`

	OutputLayout       OutputLayout  `json:"outputLayout,omitempty" yaml:"outputLayout,omitempty" jsonschema:"enum=SingleFile,enum=MultipleFiles" jsonschema_description:"Emit one artifact or split contracts, interfaces and registration."`
	MultipleInterfaces InterfaceMode `json:"multipleInterfaces,omitempty" yaml:"multipleInterfaces,omitempty" jsonschema:"enum=Unset,enum=ByEndpoint,enum=ByTag" jsonschema_description:"Interface partitioning strategy."`

	MatchPaths             []string `json:"matchPaths,omitempty" yaml:"matchPaths,omitempty" jsonschema_description:"Regular expressions; an operation is kept when its path matches any of them."`
	Tags                   []string `json:"tags,omitempty" yaml:"tags,omitempty" jsonschema_description:"Keep only operations carrying at least one of these tags."`
	TrimUnusedSchema       bool     `json:"trimUnusedSchema,omitempty" yaml:"trimUnusedSchema,omitempty" jsonschema_description:"Drop schemas not reachable from the kept operations."`
	KeepSchemaPatterns     []string `json:"keepSchemaPatterns,omitempty" yaml:"keepSchemaPatterns,omitempty" jsonschema_description:"Regular expressions naming schemas that are always kept."`
	NoDeprecatedOperations bool     `json:"noDeprecatedOperations,omitempty" yaml:"noDeprecatedOperations,omitempty" jsonschema_description:"Skip operations marked deprecated."`
	OperationNameTemplate  string   `json:"operationNameTemplate,omitempty" yaml:"operationNameTemplate,omitempty" jsonschema_description:"Method name template; {operationName} is replaced with the derived name."`

	ReturnMode                      ReturnMode `json:"returnMode,omitempty" yaml:"returnMode,omitempty" jsonschema:"enum=Raw,enum=WrappedResponse,enum=ObservableStream" jsonschema_description:"Return shape of every generated method."`
	UseCancellationTokens           bool       `json:"useCancellationTokens,omitempty" yaml:"useCancellationTokens,omitempty" jsonschema_description:"Append a CancellationToken parameter to every method."`
	UseRequestOptionsParameter      bool       `json:"useRequestOptionsParameter,omitempty" yaml:"useRequestOptionsParameter,omitempty" jsonschema_description:"Append an IApizrRequestOptions parameter and emit overloads instead of optional parameters."`
	UseDynamicQuerystringParameters bool       `json:"useDynamicQuerystringParameters,omitempty" yaml:"useDynamicQuerystringParameters,omitempty" jsonschema_description:"Bundle query parameters into one composite object parameter."`
	UsePolymorphicSerialization     bool       `json:"usePolymorphicSerialization,omitempty" yaml:"usePolymorphicSerialization,omitempty" jsonschema_description:"Emit JsonPolymorphic and JsonDerivedType attributes for discriminated hierarchies."`
	ImmutableContracts              bool       `json:"immutableContracts,omitempty" yaml:"immutableContracts,omitempty" jsonschema_description:"Emit records with init-only properties instead of classes."`

	InterfaceOnly                   bool     `json:"interfaceOnly,omitempty" yaml:"interfaceOnly,omitempty" jsonschema_description:"Emit interfaces only."`
	ContractOnly                    bool     `json:"contractOnly,omitempty" yaml:"contractOnly,omitempty" jsonschema_description:"Emit contracts only."`
	NoAutoGeneratedHeader           bool     `json:"noAutoGeneratedHeader,omitempty" yaml:"noAutoGeneratedHeader,omitempty" jsonschema_description:"Omit the auto-generated provenance header."`
	NoAcceptHeaders                 bool     `json:"noAcceptHeaders,omitempty" yaml:"noAcceptHeaders,omitempty" jsonschema_description:"Omit synthesized Accept headers."`
	NoOperationHeaders              bool     `json:"noOperationHeaders,omitempty" yaml:"noOperationHeaders,omitempty" jsonschema_description:"Omit header parameters declared by operations."`
	InternalTypeAccessibility       bool     `json:"internalTypeAccessibility,omitempty" yaml:"internalTypeAccessibility,omitempty" jsonschema_description:"Declare generated types internal instead of public."`
	AdditionalNamespaces            []string `json:"additionalNamespaces,omitempty" yaml:"additionalNamespaces,omitempty" jsonschema_description:"Extra using directives for the contracts and interfaces sections."`
	ExcludeNamespaces               []string `json:"excludeNamespaces,omitempty" yaml:"excludeNamespaces,omitempty" jsonschema_description:"Default using directives to leave out of generated sections."`
	UseIsoDateFormat                bool     `json:"useIsoDateFormat,omitempty" yaml:"useIsoDateFormat,omitempty" jsonschema_description:"Format date query parameters as yyyy-MM-dd."`
	OptionalNullableParameters      bool     `json:"optionalNullableParameters,omitempty" yaml:"optionalNullableParameters,omitempty" jsonschema_description:"Make non-required parameters nullable and optional."`
	SkipDefaultAdditionalProperties bool     `json:"skipDefaultAdditionalProperties,omitempty" yaml:"skipDefaultAdditionalProperties,omitempty" jsonschema_description:"Do not emit the additional-properties bag on contracts."`

	Registration *RegistrationSettings `json:"registration,omitempty" yaml:"registration,omitempty" jsonschema_description:"Emit an IServiceCollection registration extension when present."`
}

// RegistrationSettings drives the dependency-injection registration block.
type RegistrationSettings struct {
	BaseURL             string   `json:"baseUrl" yaml:"baseUrl" jsonschema:"required" jsonschema_description:"Base address assigned to every registered client."`
	MessageHandlers     []string `json:"messageHandlers,omitempty" yaml:"messageHandlers,omitempty" jsonschema_description:"Delegating handler types attached in order."`
	UseRetryPolicy      bool     `json:"useRetryPolicy,omitempty" yaml:"useRetryPolicy,omitempty" jsonschema_description:"Attach a jittered exponential backoff retry policy."`
	FirstBackoffSeconds float64  `json:"firstBackoffSeconds,omitempty" yaml:"firstBackoffSeconds,omitempty" jsonschema_description:"Median first retry delay in seconds. Defaults to 1."`
	MaxRetryCount       int      `json:"maxRetryCount,omitempty" yaml:"maxRetryCount,omitempty" jsonschema_description:"Retry attempt ceiling. Defaults to 6."`
	ExtensionMethodName string   `json:"extensionMethodName,omitempty" yaml:"extensionMethodName,omitempty" jsonschema_description:"Name of the generated extension method. Defaults to ConfigureRefitClients."`
}

// Option mutates GenerationSettings.
type Option func(*GenerationSettings)

// New builds settings from options on top of the zero value.
func New(opts ...Option) GenerationSettings {
	var s GenerationSettings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func WithNamespace(ns string) Option { return func(s *GenerationSettings) { s.Namespace = ns } }
func WithInterfaceMode(m InterfaceMode) Option {
	return func(s *GenerationSettings) { s.MultipleInterfaces = m }
}
func WithReturnMode(m ReturnMode) Option { return func(s *GenerationSettings) { s.ReturnMode = m } }
func WithOutputLayout(l OutputLayout) Option {
	return func(s *GenerationSettings) { s.OutputLayout = l }
}
func WithMatchPaths(patterns ...string) Option {
	return func(s *GenerationSettings) { s.MatchPaths = append(s.MatchPaths, patterns...) }
}
func WithTags(tags ...string) Option {
	return func(s *GenerationSettings) { s.Tags = append(s.Tags, tags...) }
}
func WithTrimUnusedSchema(keep ...string) Option {
	return func(s *GenerationSettings) {
		s.TrimUnusedSchema = true
		s.KeepSchemaPatterns = append(s.KeepSchemaPatterns, keep...)
	}
}
func WithRegistration(r RegistrationSettings) Option {
	return func(s *GenerationSettings) { s.Registration = &r }
}
