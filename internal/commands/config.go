package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runShowConfig,
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	RunE:  runInitConfig,
}

func init() {
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(initConfigCmd)
}

func runShowConfig(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	defaultConfig := `# Maestro Configuration

launcher:
  docker_socket: unix:///var/run/docker.sock
  network: ""
  host: localhost
  base_port: 15000
  start_timeout: 5m
  stop_timeout: 30s
  rollback_on_error: true

api:
  enabled: false
  host: localhost
  port: 8460
  rate_limit: 100

publish:
  output: manifest.json

# Run-mode values for parameter and connection-string resources
parameters: {}
connection_strings: {}
`

	if err := os.WriteFile("maestro.config.yaml", []byte(defaultConfig), 0644); err != nil {
		return err
	}

	fmt.Println("✓ Created maestro.config.yaml")
	return nil
}
