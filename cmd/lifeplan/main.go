package main

import (
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/lifeplan/internal/cli"
	"github.com/julianstephens/lifeplan/internal/cli/activities"
	"github.com/julianstephens/lifeplan/internal/cli/system"
	"github.com/julianstephens/lifeplan/internal/cli/tracking"
	"github.com/julianstephens/lifeplan/internal/config"
	"github.com/julianstephens/lifeplan/internal/constants"
	apperr "github.com/julianstephens/lifeplan/internal/errors"
	"github.com/julianstephens/lifeplan/internal/logger"
	"github.com/julianstephens/lifeplan/internal/storage"
)

var CLI struct {
	Version   kong.VersionFlag
	ConfigDir string `help:"Config directory (defaults to LIFEPLAN_CONFIG_DIR or ~/.config/lifeplan)." type:"path"`
	Database  string `help:"SQLite file path or PostgreSQL connection string. PostgreSQL passwords belong in the OS keyring, .pgpass or PGPASSWORD, not here."`
	Owner     string `help:"Owner id to act as."`
	Debug     bool   `help:"Log debug output to stderr."`

	Init     system.InitCmd `cmd:"" help:"Initialize lifeplan storage."`
	Tui      system.TuiCmd  `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Activity struct {
		Add     activities.AddCmd     `cmd:"" help:"Add a new activity."`
		List    activities.ListCmd    `cmd:"" help:"List activities."`
		Edit    activities.EditCmd    `cmd:"" help:"Edit an existing activity."`
		Archive activities.ArchiveCmd `cmd:"" help:"Archive an activity, keeping its completions."`
		Delete  activities.DeleteCmd  `cmd:"" help:"Delete an activity and its completions."`
	} `cmd:"" help:"Manage activities."`
	Toggle   tracking.ToggleCmd `cmd:"" help:"Toggle an activity's completion for a date."`
	Note     tracking.NoteCmd   `cmd:"" help:"Set the notes on an activity's completion."`
	Due      tracking.DueCmd    `cmd:"" help:"Show what is due on a date."`
	Rate     tracking.RateCmd   `cmd:"" help:"Show the completion rate for a date."`
	Window   tracking.WindowCmd `cmd:"" help:"Show a day, week, month or once window."`
	Once     tracking.OnceCmd   `cmd:"" help:"List one-off activities."`
	Validate system.ValidateCmd `cmd:"" help:"Report data-quality issues in stored activities."`
	Backup   system.BackupCmd   `cmd:"" help:"Manage SQLite database backups."`
	Keyring  system.KeyringCmd  `cmd:"" help:"Manage credentials in the OS keyring."`
	Serve    system.ServeCmd    `cmd:"" help:"Start the HTTP API server."`
}

// needsStore reports whether command reads or writes activities.
func needsStore(command string) bool {
	return !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "keyring")
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Recurring activity planner with day, week, month and once views"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		apperr.Fatal(err)
	}
	if CLI.Database != "" {
		cfg.Database = CLI.Database
	}
	if CLI.Owner != "" {
		cfg.Owner = CLI.Owner
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		apperr.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.ConfigDir}); err != nil {
		apperr.Fatalf("failed to initialize logger: %v", err)
	}

	db, err := cli.ResolveDatabase(cfg)
	if err != nil {
		apperr.Fatal(err)
	}
	store, err := cli.OpenStore(db)
	if err != nil {
		apperr.Fatal(err)
	}

	command := kctx.Command()
	load := needsStore(command) && !(command == "serve" && CLI.Serve.PrintToken)
	logger.Debug("Running command", "command", command, "owner_id", cfg.Owner, "store", store.GetConfigPath())
	apperr.Fatal(execute(store, load, func() error {
		return kctx.Run(cli.NewContext(cfg, store))
	}))
}

// execute loads store when asked, runs the command and closes store on
// every path, so the process can exit afterwards without deferred work.
func execute(store storage.Provider, load bool, run func() error) (err error) {
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("Failed to close store", "error", closeErr)
			if err == nil {
				err = closeErr
			}
		}
	}()
	if load {
		if err := store.Load(); err != nil {
			return err
		}
	}
	return run()
}
