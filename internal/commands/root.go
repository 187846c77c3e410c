package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/maestro/internal/config"
	"evalgo.org/maestro/internal/version"
)

var (
	cfgFile string
	appFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "maestro",
	Short: "Distributed application orchestration",
	Long: `Maestro models a distributed application as a graph of resources:
containers, projects, executables, parameters, and the connections
between them.

Run the graph locally with real containers and processes, or publish
it as a deployment manifest for downstream tooling.`,
	Version: version.Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./maestro.config.yaml)")
	rootCmd.PersistentFlags().StringVar(&appFile, "app", "maestro.yaml", "application definition file")
	rootCmd.PersistentFlags().String("base-port", "", "first host port for endpoint allocation")

	// These should never fail as flags are defined above
	_ = viper.BindPFlag("launcher.base_port", rootCmd.PersistentFlags().Lookup("base-port")) //nolint:errcheck

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Println(info.String())

		if cmd.Flag("verbose").Changed {
			fmt.Printf("\nDetails:\n")
			fmt.Printf("  Version:    %s\n", info.Version)
			fmt.Printf("  Git Commit: %s\n", info.GitCommit)
			fmt.Printf("  Built:      %s\n", info.BuildTime)
			fmt.Printf("  Go Version: %s\n", info.GoVersion)
			fmt.Printf("  Platform:   %s\n", info.Platform)
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "verbose version output")
}
