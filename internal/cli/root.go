package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julianstephens/lifeplan/internal/calendar"
	"github.com/julianstephens/lifeplan/internal/config"
	"github.com/julianstephens/lifeplan/internal/engine"
	"github.com/julianstephens/lifeplan/internal/keyring"
	"github.com/julianstephens/lifeplan/internal/logger"
	"github.com/julianstephens/lifeplan/internal/storage"
	"github.com/julianstephens/lifeplan/internal/storage/postgres"
	"github.com/julianstephens/lifeplan/internal/storage/sqlite"
)

type Context struct {
	Config *config.Config
	Store  storage.Provider
	Engine engine.Engine
	Owner  string
	Out    io.Writer
	// Today returns the date used when a command is given no --date.
	Today func() calendar.Date
}

// NewContext builds the command context over store for cfg.Owner.
func NewContext(cfg *config.Config, store storage.Provider) *Context {
	return &Context{
		Config: cfg,
		Store:  store,
		Engine: engine.New(store),
		Owner:  cfg.Owner,
		Out:    os.Stdout,
		Today:  func() calendar.Date { return calendar.Today(time.Local) },
	}
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// ParseDate accepts YYYY-MM-DD, "today", "yesterday" or "tomorrow". An
// empty string is today.
func (c *Context) ParseDate(s string) (calendar.Date, error) {
	today := c.Today()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDays(-1), nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	return calendar.Parse(s)
}

// NewTable returns a table writer that renders to c.Out.
func (c *Context) NewTable(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(c.Out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

// Database is where the store lives. FromKeyring marks a connection string
// read from the OS keyring, which may carry a password.
type Database struct {
	Location    string
	FromKeyring bool
}

// ResolveDatabase returns the configured database, else the connection
// string stored in the keyring, else the default SQLite path.
func ResolveDatabase(cfg *config.Config) (Database, error) {
	if cfg.Database != "" {
		if postgres.IsConnString(cfg.Database) {
			return Database{Location: cfg.Database}, nil
		}
		path, err := config.ExpandHome(cfg.Database)
		return Database{Location: path}, err
	}
	connStr, err := keyring.GetConnectionString()
	switch {
	case err == nil:
		logger.Debug("Using connection string from keyring")
		return Database{Location: connStr, FromKeyring: true}, nil
	case errors.Is(err, keyring.ErrNotFound):
	default:
		logger.Debug("Keyring lookup failed", "error", err)
	}
	return Database{Location: cfg.DefaultDatabasePath()}, nil
}

// OpenStore returns the provider for db: PostgreSQL for a connection string,
// SQLite for a file path. Passwords are refused unless db came from the
// keyring.
func OpenStore(db Database) (storage.Provider, error) {
	if !db.FromKeyring && !postgres.IsConnString(db.Location) {
		return sqlite.NewStore(db.Location), nil
	}
	if err := postgres.ValidateConnString(db.Location); err != nil {
		if !db.FromKeyring || !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return nil, err
		}
	}
	return postgres.New(db.Location), nil
}
