package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/bookarc/internal/archive"
	"github.com/vmunix/bookarc/internal/config"
)

func init() {
	backupCmd := &cobra.Command{
		Use:   "backup [dest]",
		Short: "Copy the archive into a backup directory",
		Long:  "Copies the archive tree into dest (default: backup.dir), merging with what is already there. The archive is left untouched.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBackupCmd,
	}
	rootCmd.AddCommand(backupCmd)
}

func runBackupCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	dest := a.cfg.Backup.Dir
	if len(args) > 0 {
		dest = config.ExpandHome(args[0])
	}

	a.log.Info("backup started", "archive_dir", a.cfg.Library.ArchiveDir, "dest", dest)
	n, err := archive.Backup(a.cfg.Library.ArchiveDir, dest)
	if err != nil {
		return err
	}
	a.log.Info("backup finished", "dest", dest, "bytes", n)

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"dest": dest, "bytes": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backed up %s to %s (%s)\n", a.cfg.Library.ArchiveDir, dest, formatSize(n))
	return nil
}
