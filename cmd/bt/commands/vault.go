package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/btvault/bt/internal/vault"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage configured vaults",
}

var vaultInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Validate and initialize every configured vault",
	Long: `Calls ValidateSetup on each [[vault]] configured in bt.toml: creates
the vault's content/metadata prefixes if missing and round-trips a probe
object to confirm write access.`,
	RunE: runVaultInit,
}

func init() {
	vaultCmd.AddCommand(vaultInitCmd)
}

func runVaultInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Vaults) == 0 {
		return fmt.Errorf("no vaults configured; add a [[vault]] block to %s", GetConfigFile())
	}

	ctx := cmd.Context()
	for _, vc := range cfg.Vaults {
		spec := vault.Spec{Name: vc.Name, Kind: vc.Kind}
		if vc.FS != nil {
			spec.FS = &vault.FSConfig{BasePath: vc.FS.BasePath}
		}
		if vc.S3 != nil {
			spec.S3 = &vault.S3Config{
				Bucket:         vc.S3.Bucket,
				Region:         vc.S3.Region,
				Endpoint:       vc.S3.Endpoint,
				KeyPrefix:      vc.S3.KeyPrefix,
				ForcePathStyle: vc.S3.ForcePathStyle,
			}
		}

		v, err := vault.New(ctx, spec)
		if err != nil {
			return fmt.Errorf("vault %q: %w", vc.Name, err)
		}
		if err := v.ValidateSetup(ctx); err != nil {
			return fmt.Errorf("vault %q: validation failed: %w", vc.Name, err)
		}
		fmt.Printf("vault %q (%s): OK\n", vc.Name, vc.Kind)
	}
	return nil
}
