package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSpecYAML = "" +
	"openapi: 3.0.0\n" +
	"info:\n" +
	"  title: Test API\n" +
	"  version: '1.0.0'\n" +
	"paths:\n" +
	"  /hello:\n" +
	"    get:\n" +
	"      operationId: sayHello\n" +
	"      summary: Hello\n" +
	"      tags: [greetings]\n" +
	"      responses:\n" +
	"        '200':\n" +
	"          description: ok\n" +
	"          content:\n" +
	"            application/json:\n" +
	"              schema:\n" +
	"                $ref: '#/components/schemas/Greeting'\n" +
	"components:\n" +
	"  schemas:\n" +
	"    Greeting:\n" +
	"      type: object\n" +
	"      properties:\n" +
	"        message:\n" +
	"          type: string\n"

func writeSpec(t *testing.T, dir string) string {
	t.Helper()
	specPath := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(minimalSpecYAML), 0o600))
	return specPath
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "out")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", "--input", specPath, "--output", outDir, "--multiple-files", "--dry-run"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Planned writes to")
	assert.Contains(t, out.String(), "Contracts.cs")
	assert.Contains(t, out.String(), "RefitInterfaces.cs")
	// Dry-run should not create the directory
	_, err := os.Stat(outDir)
	assert.True(t, os.IsNotExist(err), "expected no writes on dry-run")
}

func TestGeneratePipeline_WritesSingleFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	target := filepath.Join(dir, "client", "Petstore.cs")

	root := NewRootCmd()
	var logs bytes.Buffer
	root.SetOut(io.Discard)
	root.SetErr(&logs)
	root.SetArgs([]string{"generate", specPath, "-o", target, "--namespace", "Hello.Client", "--cancellation-tokens"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	code := string(data)
	assert.Contains(t, code, "namespace Hello.Client")
	assert.Contains(t, code, "interface ITestAPI")
	assert.Contains(t, code, `[Get("/hello")]`)
	assert.Contains(t, code, "Task<Greeting> SayHello(CancellationToken cancellationToken = default);")
	assert.Contains(t, code, "class Greeting")
	assert.Contains(t, logs.String(), "generated client")

	// A second run replaces its own output without --force.
	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", specPath, "-o", target})
	require.NoError(t, root.Execute())
}

func TestGeneratePipeline_RefusesForeignFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	target := filepath.Join(dir, "Handwritten.cs")
	require.NoError(t, os.WriteFile(target, []byte("class Mine {}\n"), 0o600))

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", specPath, "-o", target})
	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "class Mine {}\n", string(data))

	root = NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", specPath, "-o", target, "--force"})
	require.NoError(t, root.Execute())
}

func TestGeneratePipeline_InvalidDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte("openapi: [\n"), 0o600))

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", specPath, "-o", filepath.Join(dir, "out")})
	err := root.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "spec:")
}

func TestGeneratePipeline_Watch(t *testing.T) {
	prev := watchDebounce
	watchDebounce = 20 * time.Millisecond
	t.Cleanup(func() { watchDebounce = prev })

	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	target := filepath.Join(dir, "Output.cs")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"generate", specPath, "-o", target, "--watch"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(target)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// Give the watcher time to register before editing the document.
	time.Sleep(200 * time.Millisecond)
	updated := bytes.Replace([]byte(minimalSpecYAML), []byte("sayHello"), []byte("greetEveryone"), 1)
	require.NoError(t, os.WriteFile(specPath, updated, 0o600))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(target)
		return err == nil && bytes.Contains(data, []byte("GreetEveryone("))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
