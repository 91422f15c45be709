// cmd/revoke.go

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/spf13/cobra"
)

// RevokeCmd permanently disables a secret. Revocation is terminal and
// idempotent.
var RevokeCmd = &cobra.Command{
	Use:   "revoke <secret-id>",
	Short: "Permanently revoke a secret",
	Args:  cobra.ExactArgs(1),
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		if _, err := rt.manager.RevokeSecret(rc.Ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("revoked %s\n", args[0])
		return nil
	}),
}
