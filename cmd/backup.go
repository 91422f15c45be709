// cmd/backup.go

package cmd

import (
	"fmt"

	"github.com/CodeMonkeyCybersecurity/pandora/pkg/backup"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_cli"
	"github.com/CodeMonkeyCybersecurity/pandora/pkg/pandora_io"
	"github.com/spf13/cobra"
)

var backupList bool

func init() {
	BackupCmd.Flags().BoolVar(&backupList, "list", false, "List stored snapshots instead of taking one")
}

// BackupCmd takes a metadata snapshot now, or lists existing ones.
var BackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the metadata index",
	Args:  cobra.NoArgs,
	RunE: pandora_cli.Wrap(func(rc *pandora_io.RuntimeContext, cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(rc)
		if err != nil {
			return err
		}

		worker := backup.NewWorker(rt.manager, rt.st, rt.ledger, rt.cfg.Actor,
			rt.cfg.BackupInterval, rt.cfg.BackupRetentionDays)

		if backupList {
			names, err := worker.ListSnapshots(rc.Ctx)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("no snapshots")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		}

		path, err := worker.SnapshotOnce(rc.Ctx)
		if err != nil {
			return err
		}
		fmt.Printf("snapshot written to %s\n", path)
		return nil
	}),
}
