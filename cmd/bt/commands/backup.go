package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Drain the write-ahead log and upload metadata",
	Long: `Commit every queued staging operation in sequence order — uploading
content to each configured vault and appending the metadata snapshot — then
upload the metadata database itself.`,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
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

	if err := eng.Service.Backup(cmd.Context()); err != nil {
		return err
	}

	fmt.Println("backup complete")
	return nil
}
