// cmd/get.go

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// GetCmd reads and decrypts the latest version of a secret.
var GetCmd = &cobra.Command{
	Use:   "get <secret-id>",
	Short: "Read the latest version of a secret",
	Args:  cobra.ExactArgs(1),
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		payload, err := rt.manager.GetSecret(rc.Ctx, args[0])
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return cerr.Wrap(err, "failed to render payload")
		}
		fmt.Println(string(out))
		return nil
	}),
}
