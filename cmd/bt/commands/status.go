package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/btvault/bt/internal/backup"
	"github.com/btvault/bt/internal/cli/output"
)

var (
	statusShowDeleted bool
	statusFormat      string
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Print per-file status",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusShowDeleted, "deleted", false, "Include files deleted on disk but still tracked")
	statusCmd.Flags().StringVarP(&statusFormat, "output", "o", "table", "Output format (table|json|yaml)")
}

// statusReportList adapts a slice of backup.FileReport to output.TableRenderer.
type statusReportList []backup.FileReport

func (l statusReportList) Headers() []string { return []string{"PATH", "STATUS"} }

func (l statusReportList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, r := range l {
		rows[i] = []string{r.Path, r.Status}
	}
	return rows
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	reports, err := eng.Service.GetStatus(cmd.Context(), target, statusShowDeleted)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(statusFormat)
	if err != nil {
		return err
	}
	return output.NewPrinter(os.Stdout, format, true).Print(statusReportList(reports))
}
