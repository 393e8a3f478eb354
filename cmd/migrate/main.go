package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/logger"
	"github.com/yourwae/fastget-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

type command struct {
	usage   string
	needsDB bool
	run     func(ctx context.Context, sqlDB *sql.DB, opts options) error
}

func gooseCommand(name string) command {
	return command{
		usage:   "goose " + name + " against the configured database",
		needsDB: true,
		run: func(ctx context.Context, sqlDB *sql.DB, opts options) error {
			return migrate.Run(ctx, sqlDB, migrate.Source{Dir: opts.dir}, name)
		},
	}
}

var commands = map[string]command{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"redo":   gooseCommand("redo"),
	"status": gooseCommand("status"),
	"version": {
		usage:   "migrate up or down to -version",
		needsDB: true,
		run: func(ctx context.Context, sqlDB *sql.DB, opts options) error {
			if opts.version == "" {
				return errors.New("-version is required")
			}
			return migrate.MigrateToVersion(ctx, sqlDB, migrate.Source{Dir: opts.dir}, opts.version)
		},
	},
	"create": {
		usage: "write an empty migration named -name into -dir",
		run: func(_ context.Context, _ *sql.DB, opts options) error {
			if opts.name == "" {
				return errors.New("-name is required")
			}
			dir := opts.dir
			if dir == "" {
				dir = migrate.DefaultDir
			}
			path, err := migrate.CreateSQLMigration(dir, opts.name)
			if err != nil {
				return err
			}
			fmt.Println("created", path)
			return nil
		},
	},
	"validate": {
		usage: "check migration names and goose sections",
		run: func(_ context.Context, _ *sql.DB, opts options) error {
			if opts.dir == "" {
				return migrate.ValidateFS(migrate.EmbeddedFS())
			}
			return migrate.ValidateDir(opts.dir)
		},
	},
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "usage: migrate [flags] <command>")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", name, commands[name].usage)
	}
	flag.PrintDefaults()
}

func main() {
	var opts options
	cmdFlag := flag.String("cmd", "", "command to run; the first argument also works")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (empty uses the embedded set)")
	flag.StringVar(&opts.name, "name", "", "migration name for create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for version")
	flag.Usage = usage
	flag.Parse()

	name := strings.TrimSpace(*cmdFlag)
	if name == "" {
		name = flag.Arg(0)
	}
	if name == "" {
		name = "up"
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": name, "dir": opts.dir})

	var sqlDB *sql.DB
	if cmd.needsDB {
		if cfg.FeatureFlags.UseSQLite {
			logg.Error(ctx, "migrate.refused", errors.New("goose migrations target postgres; sqlite schemas come from FASTGET_AUTO_MIGRATE"))
			os.Exit(1)
		}
		client, err := db.New(ctx, cfg.DB, false, logg)
		if err != nil {
			logg.Error(ctx, "migrate.database_unavailable", err)
			os.Exit(1)
		}
		defer client.Close()
		if sqlDB, err = client.DB().DB(); err != nil {
			logg.Error(ctx, "migrate.database_unavailable", err)
			os.Exit(1)
		}
	}

	if err := cmd.run(ctx, sqlDB, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}
