// cmd/list.go

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/secrets"
	"github.com/spf13/cobra"
)

var listType string

func init() {
	ListCmd.Flags().StringVar(&listType, "type", "", "Only list secrets of this type")
}

// ListCmd shows metadata for every secret. Payloads are never printed.
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List secret metadata",
	Args:  cobra.NoArgs,
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		var filter secrets.SecretType
		if listType != "" {
			typ, err := secrets.ParseType(listType)
			if err != nil {
				return err
			}
			filter = typ
		}

		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		metas, err := rt.manager.ListSecrets(rc.Ctx, filter)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("no secrets")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tVERSION\tEXPIRES\tLAST ROTATED")
		for _, meta := range metas {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				meta.SecretID, meta.Type, meta.Status, meta.Version,
				formatTime(meta.ExpiresAt), formatTime(meta.LastRotated))
		}
		return w.Flush()
	}),
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
