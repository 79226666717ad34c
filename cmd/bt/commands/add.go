package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Stage a file or directory for backup",
	Long: `Walk path (a file or directory under a tracked directory, default
"."), stage every regular file not matched by an ignore rule into the
write-ahead log.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
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

	target, err := targetPath(args)
	if err != nil {
		return err
	}

	staged, err := eng.Service.StageFile(cmd.Context(), target)
	if err != nil {
		return err
	}

	fmt.Printf("staged %d file(s)\n", staged)
	return nil
}
