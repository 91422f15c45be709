// cmd/metrics.go

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// MetricsCmd prints a snapshot of the operational counters. Counters are
// per-process; the watch command exposes the same registry over HTTP for
// scraping.
var MetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show operational metrics",
	Args:  cobra.NoArgs,
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		snap, err := rt.manager.Metrics(rc.Ctx)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return cerr.Wrap(err, "failed to render metrics")
		}
		fmt.Println(string(out))
		return nil
	}),
}
