// cmd/store.go

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_err"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/secrets"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var (
	storeType    string
	storeData    string
	storeTags    []string
	storeTTLDays int
)

func init() {
	StoreCmd.Flags().StringVar(&storeType, "type", string(secrets.TypeAPIKey), "Secret type (api_key, database_password, jwt_secret, encryption_key, oauth_token, ssh_key, certificate, dynamic)")
	StoreCmd.Flags().StringVar(&storeData, "data", "", "Payload as a JSON object (required)")
	StoreCmd.Flags().StringArrayVar(&storeTags, "tag", nil, "Tag as key=value (repeatable)")
	StoreCmd.Flags().IntVar(&storeTTLDays, "ttl-days", 0, "Expire the secret this many days out (0 = no expiry)")
	_ = StoreCmd.MarkFlagRequired("data")
}

// StoreCmd creates a secret or a new version of an existing one.
var StoreCmd = &cobra.Command{
	Use:   "store <secret-id>",
	Short: "Store a secret (new or new version)",
	Long: `Encrypts and stores a secret payload. Storing to an existing id
writes a new version; the previous version stops being readable.`,
	Args: cobra.ExactArgs(1),
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		id := args[0]

		typ, err := secrets.ParseType(storeType)
		if err != nil {
			return err
		}

		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(storeData), &payload); err != nil {
			return cerr.Mark(cerr.Wrap(err, "--data must be a JSON object"), pandora_err.ErrInvalidInput)
		}

		tags, err := parseTags(storeTags)
		if err != nil {
			return err
		}

		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		meta, err := rt.manager.StoreSecret(rc.Ctx, id, payload, typ, &secrets.StoreOptions{
			Tags:    tags,
			TTLDays: storeTTLDays,
		})
		if err != nil {
			return err
		}

		otelzap.Ctx(rc.Ctx).Info("Secret stored",
			zap.String("secret_id", meta.SecretID),
			zap.Int("version", meta.Version))
		fmt.Printf("stored %s (version %d, type %s)\n", meta.SecretID, meta.Version, meta.Type)
		return nil
	}),
}

func parseTags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	tags := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, cerr.Mark(cerr.Newf("invalid --tag %q, expected key=value", pair), pandora_err.ErrInvalidInput)
		}
		tags[k] = v
	}
	return tags, nil
}
