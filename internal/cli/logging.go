package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

// commandLogger writes to the command's stderr and honours --verbose.
func commandLogger(cmd *cobra.Command, verbose bool) zerolog.Logger {
	return newLogger(cmd.ErrOrStderr(), verbose)
}
