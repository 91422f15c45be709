// cmd/root.go

// Package cmd implements the pandora command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd is the base command for pandora.
var RootCmd = &cobra.Command{
	Use:   "pandora",
	Short: "Pandora secret lifecycle manager",
	Long: `Pandora stores, encrypts, versions, rotates, audits, and caches
credential material for other services. Secrets live in Vault (or an
in-memory store for local use), payloads are field-encrypted with
AES-256-GCM, and every lifecycle operation lands in the audit ledger.`,
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}),
}

func init() {
	RootCmd.AddCommand(
		StoreCmd,
		GetCmd,
		RotateCmd,
		RevokeCmd,
		ListCmd,
		AuditCmd,
		BackupCmd,
		HealthCmd,
		MetricsCmd,
		WatchCmd,
	)
}

// Execute runs the root command, mapping user errors to a clean exit.
func Execute() {
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
	}()

	if err := RootCmd.Execute(); err != nil {
		if pandora_err.IsUserError(err) {
			logger.L().Warn("Command completed with user error", zap.Error(err))
			os.Exit(1)
		}
		logger.L().Error("Command failed", zap.Error(err))
		os.Exit(2)
	}
}
