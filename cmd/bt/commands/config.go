package commands

import (
	"fmt"
	"os"

	"github.com/btvault/bt/internal/cli/output"
	"github.com/spf13/cobra"

	"github.com/btvault/bt/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the bt configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file and generate a host ID",
	Long: `Create a default configuration file at the resolved config path
(--config, or $XDG_CONFIG_HOME/bt.toml, falling back to ~/.config/bt.toml)
with a freshly generated host_id. Fails if a file already exists there.`,
	RunE: runConfigInit,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the loaded configuration",
	RunE:  runConfigList,
}

var configOutputFormat string

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configListCmd.Flags().StringVarP(&configOutputFormat, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	cfg := config.GetDefaultConfig()
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("Configuration created at %s (host_id=%s)\n", path, cfg.HostID)
	fmt.Println("Add a [[vault]] block, then run: bt init && bt add && bt backup")
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch configOutputFormat {
	case "json":
		return output.PrintJSON(os.Stdout, cfg)
	default:
		data, err := config.RenderYAML(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
}
