package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/maestro/internal/appfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate an application definition",
	Long: `Validate an application definition file: schema, resource names,
endpoint declarations, and every {resource.path} reference.

Examples:
  maestro validate
  maestro validate shop.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	file := appFile
	if len(args) == 1 {
		file = args[0]
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Building exercises reference resolution, not just the schema
	builder, err := appfile.Load(data)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s is valid (%d resource(s))\n", file, len(builder.Resources()))
	return nil
}
