package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/refitgen/internal/settings"
)

const defaultInitPath = "refitgen.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath  string
	Force       bool
	Interactive bool
	Verbose     bool
	Stdout      io.Writer
}

// initAnswers holds the values collected by the interactive form.
type initAnswers struct {
	Input         string
	Output        string
	Namespace     string
	InterfaceMode string
	BaseURL       string
	Retry         bool
}

var (
	initRunner  = runInit
	runInitForm = func(a *initAnswers) error { return newInitForm(a).Run() }
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a refitgen settings file",
		Long:  "Scaffold a commented refitgen settings file that documents available options, or answer a few questions with --interactive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			interactive, err := cmd.Flags().GetBool("interactive")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath:  out,
				Force:       force,
				Interactive: interactive,
				Verbose:     verbose,
				Stdout:      cmd.OutOrStdout(),
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", defaultInitPath, "Where to write the settings file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")
	cmd.Flags().BoolP("interactive", "i", false, "Build the settings file from a short questionnaire")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultInitPath
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	if cfg.Interactive {
		answers := initAnswers{Output: "./Generated", InterfaceMode: string(settings.InterfacesByTag)}
		if err := runInitForm(&answers); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return newUsageError("init: aborted")
			}
			return fmt.Errorf("init: %w", err)
		}
		data, err := renderInitConfig(answers)
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		content = string(data)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	w := cfg.Stdout
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Wrote settings to %s\n", absPath)
	return nil
}

func newInitForm(a *initAnswers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAPI document").
				Description("Path or http(s) URL of the Swagger/OpenAPI document").
				Value(&a.Input).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("input cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Output").
				Description("Output file (.cs) or directory").
				Value(&a.Output),
			huh.NewInput().
				Title("Namespace").
				Description("Namespace of the generated code").
				Placeholder(settings.DefaultNamespace).
				Value(&a.Namespace),
			huh.NewSelect[string]().
				Title("Interfaces").
				Description("How operations are grouped into interfaces").
				Options(
					huh.NewOption("One interface per tag", string(settings.InterfacesByTag)),
					huh.NewOption("One interface per endpoint", string(settings.InterfacesByEndpoint)),
					huh.NewOption("A single interface", string(settings.InterfacesUnset)),
				).
				Value(&a.InterfaceMode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Base URL").
				Description("Leave empty to skip IServiceCollection registration").
				Value(&a.BaseURL),
			huh.NewConfirm().
				Title("Retry policy").
				Description("Attach a Polly retry policy to every client").
				Value(&a.Retry),
		),
	)
}

// renderInitConfig turns form answers into a settings file and checks that
// the result is accepted by the settings loader.
func renderInitConfig(a initAnswers) ([]byte, error) {
	f := settings.File{
		Input:  strings.TrimSpace(a.Input),
		Output: strings.TrimSpace(a.Output),
	}
	f.Namespace = strings.TrimSpace(a.Namespace)
	f.MultipleInterfaces = settings.InterfaceMode(a.InterfaceMode)
	if f.MultipleInterfaces == settings.InterfacesUnset {
		f.MultipleInterfaces = ""
	}
	if base := strings.TrimSpace(a.BaseURL); base != "" {
		f.Registration = &settings.RegistrationSettings{BaseURL: base, UseRetryPolicy: a.Retry}
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, err
	}
	parsed, err := settings.ParseFile(data)
	if err != nil {
		return nil, err
	}
	if _, err := settings.Prepare(parsed.GenerationSettings); err != nil {
		return nil, err
	}
	return append([]byte("# refitgen settings\n"), data...), nil
}

// sampleConfigYAML is a commented example settings file documenting available options.
const sampleConfigYAML = `# refitgen settings (YAML)
# All fields are optional. Command-line flags override settings file values.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: ./openapi.yaml

# Output file (single file layout) or directory.
# output: ./Generated

# Namespace of the generated interfaces; contracts default to the same.
# namespace: GeneratedCode
# contractsNamespace: GeneratedCode.Contracts

# SingleFile or MultipleFiles.
# outputLayout: SingleFile

# Unset (one interface), ByEndpoint or ByTag.
# multipleInterfaces: ByTag

# Operation selection.
# matchPaths: ['^/pets']
# tags: [pets, store]
# noDeprecatedOperations: false

# Drop schemas the selected operations never reference.
# trimUnusedSchema: true
# keepSchemaPatterns: ['^Error$']

# Method shape.
# operationNameTemplate: '{operationName}Async'
# returnMode: Raw            # Raw, WrappedResponse or ObservableStream
# useCancellationTokens: true
# useRequestOptionsParameter: false
# useDynamicQuerystringParameters: false
# optionalNullableParameters: false
# useIsoDateFormat: false
# noAcceptHeaders: false
# noOperationHeaders: false

# Contracts.
# immutableContracts: false
# usePolymorphicSerialization: false
# skipDefaultAdditionalProperties: false
# internalTypeAccessibility: false

# Sections and usings.
# interfaceOnly: false
# contractOnly: false
# noAutoGeneratedHeader: false
# additionalNamespaces: [MyCompany.Shared]
# excludeNamespaces: [System.Threading]

# IServiceCollection registration.
# registration:
#   baseUrl: https://api.example.com
#   messageHandlers: [AuthHandler]
#   useRetryPolicy: true
#   firstBackoffSeconds: 1
#   maxRetryCount: 6
#   extensionMethodName: ConfigureRefitClients
`
