package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cuemby/stride/pkg/config"
	"github.com/cuemby/stride/pkg/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Generate and store a solver UUID in config.json",
	Long: `register creates a new solver UUID and writes it into config.json.
If a UUID is already registered, --delete-old-uuid is required; the old
value is appended to solver_uuid_backup.log before being overwritten.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().Bool("delete-old-uuid", false, "allow overwriting an existing solver UUID")
}

func runRegister(cmd *cobra.Command, args []string) error {
	dir, settings, err := openDataDir(cmd)
	if err != nil {
		return err
	}
	deleteOld, _ := cmd.Flags().GetBool("delete-old-uuid")

	if settings.SolverUUID != nil {
		if !deleteOld {
			return fmt.Errorf("a solver UUID is already registered (%s); pass --delete-old-uuid to replace it", settings.SolverUUID)
		}
		backupLine := fmt.Sprintf("%s replaced %s\n", time.Now().UTC().Format(time.RFC3339), settings.SolverUUID)
		f, err := os.OpenFile(dir.SolverUUIDBackupPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("backing up old solver UUID: %w", err)
		}
		if _, err := f.WriteString(backupLine); err != nil {
			f.Close()
			return fmt.Errorf("writing solver UUID backup: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	newUUID := uuid.New()
	settings.SolverUUID = &newUUID
	if err := config.StoreToPath(dir.ConfigPath(), settings); err != nil {
		return err
	}
	config.StoreGlobal(settings)

	origin := newOriginClient(settings)
	log.Info(fmt.Sprintf("registered solver %s", newUUID))
	fmt.Println(origin.SolverWebsiteURL(newUUID.String()))
	return nil
}
