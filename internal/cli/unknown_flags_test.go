package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	t.Parallel()
	for _, args := range [][]string{
		{"generate", "--unknown-flag"},
		{"init", "--lang", "go"},
		{"--nope"},
	} {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs(args)

		err := root.Execute()
		require.Error(t, err, "args %v", args)
		_, ok := err.(usageError)
		assert.True(t, ok, "expected usage error for %v, got %T: %v", args, err, err)
		assert.Contains(t, err.Error(), "unknown flag")
		assert.Contains(t, err.Error(), "Usage:")
	}
}
