package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/club-billing/pkg/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore a full backup",
}

var backupDir string

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON backup of every collection",
	Run: func(cmd *cobra.Command, args []string) {
		env := mustOpen(cmd.Context())
		defer env.Close()

		dir := backupDir
		if dir == "" {
			dir = env.paths.BackupDir()
		}
		now := time.Now()
		path, err := backup.WriteFile(dir, env.svc.State(), env.settings.ClubName, now)
		exitOnError(err, "failed to export backup")
		if env.activity != nil {
			if err := env.activity.RecordBackup(cmd.Context(), now); err != nil {
				slog.Warn("failed to record backup time", "error", err)
			}
		}
		fmt.Printf("✓ Backup written to %s\n", path)
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all data with a backup",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := backup.ImportFile(args[0])
		exitOnError(err, "invalid backup")

		env := mustOpen(cmd.Context())
		defer env.Close()

		fmt.Println(doc.Summary())
		exitOnError(confirm("Esto reemplaza todos los datos actuales. ¿Continuar?"), "import cancelled")

		env.apply(cmd.Context(), doc.Restore())
		fmt.Println("✓ Backup restored")
	},
}

func init() {
	backupExportCmd.Flags().StringVar(&backupDir, "dir", "", "output directory (default CLUB_BACKUP_DIR)")
	backupCmd.AddCommand(backupExportCmd, backupImportCmd)
}
