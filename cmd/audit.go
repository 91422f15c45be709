// cmd/audit.go

package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/audit"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	auditSecretID string
	auditAction   string
	auditSince    time.Duration
)

func init() {
	AuditCmd.Flags().StringVar(&auditSecretID, "secret-id", "", "Only events for this secret")
	AuditCmd.Flags().StringVar(&auditAction, "action", "", "Only events with this action (store, read, rotate, revoke, backup, checksum_mismatch)")
	AuditCmd.Flags().DurationVar(&auditSince, "since", 0, "Only events newer than this (e.g. 24h)")
}

// AuditCmd queries the audit ledger, including events persisted by
// earlier runs.
var AuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit ledger",
	Args:  cobra.NoArgs,
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		filter := audit.Filter{
			SecretID: auditSecretID,
			Action:   audit.Action(auditAction),
		}
		if auditSince > 0 {
			filter.From = time.Now().UTC().Add(-auditSince)
		}

		events := rt.manager.AuditEvents(rc.Ctx, filter)
		out, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return cerr.Wrap(err, "failed to render events")
		}
		fmt.Println(string(out))
		return nil
	}),
}
