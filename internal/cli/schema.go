package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mark3labs/refitgen/internal/settings"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the settings file",
		Long:  "Print the JSON Schema describing refitgen settings files, for editor completion and validation.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := settings.JSONSchema()
			if err != nil {
				return fmt.Errorf("schema: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
