package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Track the current directory",
	Long:  `Track the current working directory as a backup root.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return err
	}

	eng, err := openEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	dir, err := eng.Service.AddDirectory(cmd.Context(), cwd)
	if err != nil {
		return err
	}

	fmt.Printf("tracking %s\n", dir.Path)
	return nil
}
