package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/refitgen/internal/output"
	"github.com/mark3labs/refitgen/internal/pipeline"
	"github.com/mark3labs/refitgen/internal/settings"
	"github.com/mark3labs/refitgen/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, settings file values, and CLI overrides.
type GenerateConfig struct {
	Input          string
	Output         string
	ConfigPath     string
	Settings       settings.GenerationSettings
	DryRun         bool
	Force          bool
	Watch          bool
	SkipValidation bool
	Verbose        bool

	Logger zerolog.Logger
	Stdout io.Writer

	// reload re-reads the settings file and reapplies flag overrides.
	reload func() (*GenerateConfig, error)
}

var generateRunner = runGenerate

type boolSetting struct {
	flag  string
	usage string
	field func(*settings.GenerationSettings) *bool
}

var boolSettings = []boolSetting{
	{"trim-unused-schema", "Drop schemas no selected operation references", func(s *settings.GenerationSettings) *bool { return &s.TrimUnusedSchema }},
	{"no-deprecated-operations", "Skip operations marked deprecated", func(s *settings.GenerationSettings) *bool { return &s.NoDeprecatedOperations }},
	{"cancellation-tokens", "Append a CancellationToken parameter to every method", func(s *settings.GenerationSettings) *bool { return &s.UseCancellationTokens }},
	{"use-request-options", "Append an IApizrRequestOptions parameter and emit overloads", func(s *settings.GenerationSettings) *bool { return &s.UseRequestOptionsParameter }},
	{"dynamic-querystring-parameters", "Bundle query parameters into one object parameter", func(s *settings.GenerationSettings) *bool { return &s.UseDynamicQuerystringParameters }},
	{"polymorphic-serialization", "Emit JsonPolymorphic attributes for discriminated hierarchies", func(s *settings.GenerationSettings) *bool { return &s.UsePolymorphicSerialization }},
	{"immutable-records", "Emit records with init-only properties", func(s *settings.GenerationSettings) *bool { return &s.ImmutableContracts }},
	{"interface-only", "Emit interfaces only", func(s *settings.GenerationSettings) *bool { return &s.InterfaceOnly }},
	{"contract-only", "Emit contracts only", func(s *settings.GenerationSettings) *bool { return &s.ContractOnly }},
	{"no-auto-generated-header", "Omit the auto-generated header", func(s *settings.GenerationSettings) *bool { return &s.NoAutoGeneratedHeader }},
	{"no-accept-headers", "Omit Accept headers", func(s *settings.GenerationSettings) *bool { return &s.NoAcceptHeaders }},
	{"no-operation-headers", "Omit header parameters", func(s *settings.GenerationSettings) *bool { return &s.NoOperationHeaders }},
	{"internal", "Declare generated types internal", func(s *settings.GenerationSettings) *bool { return &s.InternalTypeAccessibility }},
	{"use-iso-date-format", "Format date query parameters as yyyy-MM-dd", func(s *settings.GenerationSettings) *bool { return &s.UseIsoDateFormat }},
	{"optional-nullable-parameters", "Make non-required parameters nullable and optional", func(s *settings.GenerationSettings) *bool { return &s.OptionalNullableParameters }},
	{"skip-default-additional-properties", "Do not emit the additional-properties bag", func(s *settings.GenerationSettings) *bool { return &s.SkipDefaultAdditionalProperties }},
}

type sliceSetting struct {
	flag  string
	usage string
	field func(*settings.GenerationSettings) *[]string
}

var sliceSettings = []sliceSetting{
	{"match-path", "Keep operations whose path matches these regular expressions", func(s *settings.GenerationSettings) *[]string { return &s.MatchPaths }},
	{"tag", "Keep operations carrying one of these tags", func(s *settings.GenerationSettings) *[]string { return &s.Tags }},
	{"keep-schema", "Always keep schemas matching these regular expressions", func(s *settings.GenerationSettings) *[]string { return &s.KeepSchemaPatterns }},
	{"additional-namespace", "Extra using directives", func(s *settings.GenerationSettings) *[]string { return &s.AdditionalNamespaces }},
	{"exclude-namespace", "Default using directives to leave out", func(s *settings.GenerationSettings) *[]string { return &s.ExcludeNamespaces }},
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [input]",
		Short: "Generate a Refit client from an OpenAPI/Swagger document",
		Long: "Generate Refit interfaces, contracts and registration code from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, a settings file, or defaults.",
		Example: strings.TrimSpace(`  refitgen generate petstore.yaml --namespace Petstore.Client --output ./Generated
  refitgen --config refitgen.yaml generate --multiple-interfaces ByTag --dry-run
  refitgen generate --input https://example.com/openapi.json --base-url https://api.example.com --retry`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd, args)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.StringP("output", "o", "", "Output file (.cs) or directory; defaults to the current directory")
	flags.String("namespace", "", "Namespace of the generated code (default GeneratedCode)")
	flags.String("contracts-namespace", "", "Namespace of the generated contracts (default: --namespace)")
	flags.String("multiple-interfaces", "", "Interface partitioning (Unset|ByEndpoint|ByTag)")
	flags.String("return-mode", "", "Method return shape (Raw|WrappedResponse|ObservableStream)")
	flags.String("operation-name-template", "", "Method name template; {operationName} is replaced with the derived name")
	flags.Bool("multiple-files", false, "Split contracts, interfaces and registration into separate files")
	for _, b := range boolSettings {
		flags.Bool(b.flag, false, b.usage)
	}
	for _, s := range sliceSettings {
		flags.StringSlice(s.flag, nil, s.usage)
	}

	flags.String("base-url", "", "Emit IServiceCollection registration using this base address")
	flags.StringSlice("message-handler", nil, "DelegatingHandler types attached to every client, in order")
	flags.Bool("retry", false, "Attach a jittered exponential backoff retry policy")
	flags.Float64("first-backoff-seconds", 0, "Median first retry delay in seconds (default 1)")
	flags.Int("max-retry-count", 0, "Retry attempt ceiling (default 6)")
	flags.String("extension-method-name", "", "Name of the registration extension method (default ConfigureRefitClients)")

	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing files that were not generated by refitgen")
	flags.Bool("watch", false, "Regenerate whenever the input or settings file changes")
	flags.Bool("skip-validation", false, "Generate even when the document fails OpenAPI validation")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command, args []string) (*GenerateConfig, error) {
	cfg := GenerateConfig{Stdout: cmd.OutOrStdout()}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		f, err := settings.LoadFile(configPath)
		if err != nil {
			return nil, newUsageError(fmt.Sprintf("config file %q: %v", configPath, err))
		}
		cfg.Input = f.Input
		cfg.Output = f.Output
		cfg.Settings = f.GenerationSettings
	}

	if len(args) == 1 {
		cfg.Input = args[0]
	}
	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Logger = commandLogger(cmd, cfg.Verbose)
	cfg.reload = func() (*GenerateConfig, error) { return resolveGenerateConfig(cmd, args) }

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	s := &cfg.Settings
	strs := map[string]func(string){
		"input":                   func(v string) { cfg.Input = v },
		"output":                  func(v string) { cfg.Output = v },
		"namespace":               func(v string) { s.Namespace = v },
		"contracts-namespace":     func(v string) { s.ContractsNamespace = v },
		"multiple-interfaces":     func(v string) { s.MultipleInterfaces = settings.InterfaceMode(v) },
		"return-mode":             func(v string) { s.ReturnMode = settings.ReturnMode(v) },
		"operation-name-template": func(v string) { s.OperationNameTemplate = v },
	}
	for name, set := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		set(strings.TrimSpace(value))
	}

	if flags.Changed("multiple-files") {
		value, err := flags.GetBool("multiple-files")
		if err != nil {
			return err
		}
		s.OutputLayout = settings.LayoutSingleFile
		if value {
			s.OutputLayout = settings.LayoutMultipleFiles
		}
	}
	for _, b := range boolSettings {
		if !flags.Changed(b.flag) {
			continue
		}
		value, err := flags.GetBool(b.flag)
		if err != nil {
			return err
		}
		*b.field(s) = value
	}
	for _, sl := range sliceSettings {
		if !flags.Changed(sl.flag) {
			continue
		}
		value, err := flags.GetStringSlice(sl.flag)
		if err != nil {
			return err
		}
		*sl.field(s) = value
	}

	if err := applyRegistrationOverrides(flags, s); err != nil {
		return err
	}

	opts := map[string]*bool{
		"dry-run":         &cfg.DryRun,
		"force":           &cfg.Force,
		"watch":           &cfg.Watch,
		"skip-validation": &cfg.SkipValidation,
		"verbose":         &cfg.Verbose,
	}
	for name, dst := range opts {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	return nil
}

// applyRegistrationOverrides creates the registration block on demand so
// flags can extend one loaded from a settings file.
func applyRegistrationOverrides(flags *pflag.FlagSet, s *settings.GenerationSettings) error {
	names := []string{"base-url", "message-handler", "retry", "first-backoff-seconds", "max-retry-count", "extension-method-name"}
	changed := false
	for _, n := range names {
		changed = changed || flags.Changed(n)
	}
	if !changed {
		return nil
	}
	r := settings.RegistrationSettings{}
	if s.Registration != nil {
		r = *s.Registration
	}

	var err error
	if flags.Changed("base-url") {
		if r.BaseURL, err = flags.GetString("base-url"); err != nil {
			return err
		}
	}
	if flags.Changed("message-handler") {
		handlers, err := flags.GetStringSlice("message-handler")
		if err != nil {
			return err
		}
		r.MessageHandlers = handlers
	}
	if flags.Changed("retry") {
		if r.UseRetryPolicy, err = flags.GetBool("retry"); err != nil {
			return err
		}
	}
	if flags.Changed("first-backoff-seconds") {
		if r.FirstBackoffSeconds, err = flags.GetFloat64("first-backoff-seconds"); err != nil {
			return err
		}
	}
	if flags.Changed("max-retry-count") {
		if r.MaxRetryCount, err = flags.GetInt("max-retry-count"); err != nil {
			return err
		}
	}
	if flags.Changed("extension-method-name") {
		if r.ExtensionMethodName, err = flags.GetString("extension-method-name"); err != nil {
			return err
		}
	}
	s.Registration = &r
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Output = strings.TrimSpace(c.Output)
	if c.Output == "" {
		c.Output = "."
	}
	if c.Settings.Registration != nil {
		c.Settings.Registration.BaseURL = strings.TrimSpace(c.Settings.Registration.BaseURL)
	}
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: an input document is required (argument, --input or settings file)")
	}
	if c.Watch && c.DryRun {
		return newUsageError("generate: --watch cannot be combined with --dry-run")
	}
	if c.Watch && isURL(c.Input) {
		return newUsageError("generate: --watch needs a local input file")
	}
	// Surface contradictory settings before any document is loaded.
	if _, err := settings.Prepare(c.Settings); err != nil {
		return friendlyError(err)
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	err := generateOnce(ctx, cfg)
	if !cfg.Watch {
		return err
	}
	if err != nil {
		cfg.Logger.Error().Err(err).Msg("generation failed; waiting for changes")
	}

	paths := []string{cfg.Input}
	if cfg.ConfigPath != "" {
		paths = append(paths, cfg.ConfigPath)
	}
	return watchAndRegenerate(ctx, cfg, paths)
}

func generateOnce(ctx context.Context, cfg *GenerateConfig) error {
	log := cfg.Logger
	src, err := spec.Load(ctx, cfg.Input,
		spec.WithSkipValidation(cfg.SkipValidation),
		spec.WithLogger(log),
	)
	if err != nil {
		return friendlyError(err)
	}
	doc, err := spec.Build(src, spec.WithBuildLogger(log))
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	res, err := pipeline.Run(doc, cfg.Settings, pipeline.WithLogger(log))
	if err != nil {
		return friendlyError(err)
	}

	opts := []output.Option{output.WithForce(cfg.Force), output.WithLogger(log)}
	if cfg.DryRun {
		planned, err := output.Plan(cfg.Output, res.Artifacts, opts...)
		if err != nil {
			return wrapOutputError(err, cfg.Output)
		}
		printPlan(cfg.Stdout, cfg.Output, planned)
		return nil
	}

	planned, err := output.Write(cfg.Output, res.Artifacts, opts...)
	if err != nil {
		return wrapOutputError(err, cfg.Output)
	}
	log.Info().
		Int("files", len(planned)).
		Int("operations", len(res.Operations)).
		Int("contracts", len(res.Contracts)).
		Strs("interfaces", res.InterfaceNames).
		Msg("generated client")
	return nil
}

func printPlan(w io.Writer, target string, planned []output.PlannedFile) {
	abs := target
	if ap, err := filepath.Abs(target); err == nil {
		abs = ap
	}
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", abs, len(planned))
	for _, p := range planned {
		note := ""
		if p.Exists {
			note = " (overwrite)"
		}
		fmt.Fprintf(w, "- %s %d bytes%s\n", filepath.Base(p.Path), p.Size, note)
	}
}

func wrapOutputError(err error, target string) error {
	if errors.Is(err, output.ErrExists) {
		return newUsageError(fmt.Sprintf("output error for %s: %v", target, err))
	}
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --output or use --force when appropriate.", target, msg))
	}
	return err
}

func isURL(input string) bool {
	u, err := url.Parse(input)
	return err == nil && u.Scheme != "" && u.Host != ""
}
