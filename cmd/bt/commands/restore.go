package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreDigest string

var restoreCmd = &cobra.Command{
	Use:   "restore <file> --digest=HEX",
	Short: "Restore a file's content to FILE.HEX",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreDigest, "digest", "", "digest of the snapshot to restore (required)")
	_ = restoreCmd.MarkFlagRequired("digest")
}

func runRestore(cmd *cobra.Command, args []string) error {
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

	outputPath, err := eng.Service.RestoreFile(cmd.Context(), args[0], restoreDigest)
	if err != nil {
		return err
	}

	fmt.Printf("restored to %s\n", outputPath)
	return nil
}
