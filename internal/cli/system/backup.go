package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/lifeplan/internal/backup"
	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/storage/sqlite"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

var errBackupUnsupported = errors.New("backups are only supported for SQLite databases")

func backupManager(ctx *cli.Context) (*backup.Manager, error) {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil, errBackupUnsupported
	}
	return backup.NewManager(ctx.Store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	info, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Printf("✓ Backup created: %s\n", info.Name())
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	tw := ctx.NewTable("Created", "File", "Size")
	for _, b := range backups {
		tw.AppendRow([]any{b.Timestamp.Format("2006-01-02 15:04:05"), b.Name(), fmt.Sprintf("%.1f KB", float64(b.Size)/1024)})
	}
	tw.SetCaption("%d backups, keeping the most recent %d in %s", len(backups), backup.MaxBackups, mgr.Dir())
	tw.Render()
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `help:"Confirm replacing the current database." short:"y"`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Resolve(c.BackupFile)
	if err != nil {
		return err
	}
	if !c.Yes {
		ctx.Println("⚠️  This replaces the current database. Stop any running TUI or server first.")
		ctx.Printf("Re-run with --yes to restore from: %s\n", path)
		return nil
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	safety, err := mgr.Restore(path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if safety.Path != "" {
		ctx.Printf("Saved the previous database as: %s\n", safety.Name())
	}
	ctx.Printf("✓ Restored from: %s\n", path)
	return nil
}
