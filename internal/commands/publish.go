package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"evalgo.org/maestro/internal/appfile"
	"evalgo.org/maestro/internal/manifest"
)

var publishOutput string

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish the deployment manifest",
	Long: `Project the application graph into a deployment manifest. Values that
depend on other resources are written as {resource.path} placeholders
for the deployment target to bind.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishOutput, "output", "o", "", "manifest output path (default: from config)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	builder, err := appfile.LoadFile(appFile)
	if err != nil {
		return err
	}

	m, err := manifest.Build(context.Background(), builder.Resources())
	if err != nil {
		return fmt.Errorf("failed to build manifest: %w", err)
	}

	output := publishOutput
	if output == "" {
		output = cfg.Publish.Output
	}

	if err := manifest.WriteFile(output, m); err != nil {
		return err
	}

	fmt.Printf("✓ Manifest written to %s (%d resource(s))\n", output, len(m.Resources))
	return nil
}
