package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/lifeplan/internal/backup"
	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/config"
	"github.com/julianstephens/lifeplan/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Delete an existing SQLite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.removeDatabase(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized lifeplan storage at: %s\n", ctx.Store.GetConfigPath())

	path := config.Path(ctx.Config.ConfigDir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := ctx.Config.Save(); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		ctx.Printf("Wrote default config to: %s\n", path)
	}
	return nil
}

// removeDatabase snapshots and then deletes the SQLite file behind
// ctx.Store.
func (c *InitCmd) removeDatabase(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()
	info, err := os.Stat(dbPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to access existing database: %w", err)
	case info.IsDir():
		return fmt.Errorf("database path %s is a directory", dbPath)
	}
	if _, ok := ctx.Store.(*sqlite.Store); ok {
		info, err := backup.NewManager(dbPath).Create()
		if err != nil {
			return fmt.Errorf("failed to back up existing database: %w", err)
		}
		ctx.Printf("Backed up existing database to: %s\n", info.Path)
	}
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}
