package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/btvault/bt/internal/bytesize"
	"github.com/btvault/bt/internal/cli/output"
	"github.com/btvault/bt/internal/model"
)

var logFormat string

var logCmd = &cobra.Command{
	Use:   "log <file>",
	Short: "Print a file's snapshot history",
	Args:  cobra.ExactArgs(1),
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVarP(&logFormat, "output", "o", "table", "Output format (table|json|yaml)")
}

// snapshotList adapts a slice of *model.FileSnapshot to output.TableRenderer.
type snapshotList []*model.FileSnapshot

func (l snapshotList) Headers() []string {
	return []string{"CREATED", "DIGEST", "SIZE"}
}

func (l snapshotList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, s := range l {
		rows[i] = []string{
			s.CreatedAt.Format("2006-01-02 15:04:05"),
			s.ContentID,
			bytesize.ByteSize(s.Size).String(),
		}
	}
	return rows
}

func runLog(cmd *cobra.Command, args []string) error {
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

	snaps, err := eng.Service.GetFileHistory(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	// GetFileHistory already returns snapshots newest first.

	format, err := output.ParseFormat(logFormat)
	if err != nil {
		return err
	}
	return output.NewPrinter(os.Stdout, format, true).Print(snapshotList(snaps))
}
