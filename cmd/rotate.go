// cmd/rotate.go

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// RotateCmd replaces a secret's material with freshly generated values.
var RotateCmd = &cobra.Command{
	Use:   "rotate <secret-id>",
	Short: "Rotate a secret to freshly generated material",
	Long: `Generates replacement material for the secret's type, stores it as
a new version, and invalidates the cache. The secret id is unchanged;
consumers pick up the new value on their next read.`,
	Args: cobra.ExactArgs(1),
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		meta, err := rt.manager.RotateSecret(rc.Ctx, args[0])
		if err != nil {
			return err
		}

		otelzap.Ctx(rc.Ctx).Info("Secret rotated",
			zap.String("secret_id", meta.SecretID),
			zap.Int("version", meta.Version))
		fmt.Printf("rotated %s to version %d\n", meta.SecretID, meta.Version)
		return nil
	}),
}
