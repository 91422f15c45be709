// cmd/health.go

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// HealthCmd probes the store and cache backends.
var HealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check store and cache reachability",
	Args:  cobra.NoArgs,
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		report := rt.manager.HealthCheck(rc.Ctx)
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return cerr.Wrap(err, "failed to render report")
		}
		fmt.Println(string(out))

		if !report.Overall {
			return cerr.Mark(cerr.New("secret store is unreachable"), pandora_err.ErrConnection)
		}
		return nil
	}),
}
