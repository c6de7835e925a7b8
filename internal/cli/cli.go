package cli

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmsavelev/mongrate"
	"github.com/pkg/errors"
)

type (
	CloserFunc func() error

	Config struct {
		MongoURI         string
		DatabaseName     string
		MigrationsFolder string
		LedgerCollection string
		AdvisoryLock     bool
	}

	App struct {
		migrator *mongrate.Migrator
	}
)

func NewFromYaml(path string) (*App, CloserFunc, error) {
	cfg, err := ConfigFromYaml(path)
	if err != nil {
		return nil, nil, err
	}

	return New(cfg)
}

func New(cfg Config) (*App, CloserFunc, error) {
	opts := []mongrate.OptionFunc{
		mongrate.UseMongoDB(cfg.MongoURI, cfg.DatabaseName),
		mongrate.UseLocalFolderSource(cfg.MigrationsFolder),
		mongrate.UseColorLogger(log.New(os.Stdout, "", 0), true, true),
	}

	if cfg.LedgerCollection != "" {
		opts = append(opts, mongrate.WithLedgerCollection(cfg.LedgerCollection))
	}

	if cfg.AdvisoryLock {
		opts = append(opts, mongrate.WithAdvisoryLock())
	}

	m, closer, err := mongrate.NewMigrator(opts...)
	if err != nil {
		return nil, nil, err
	}

	return &App{migrator: m}, CloserFunc(closer), nil
}

func (app *App) Migrate(ctx context.Context) error {
	if _, err := app.migrator.Migrate(ctx); err != nil {
		return err
	}

	return nil
}

func (app *App) MigrateOne(ctx context.Context, key string) error {
	return app.migrator.MigrateOne(ctx, key)
}

func (app *App) Rollback(ctx context.Context, key string) error {
	return app.migrator.Rollback(ctx, key)
}

// ResolveFolder maps an optional module argument to its migrations folder:
// <module>/migrations when given, ./migrations otherwise. Dots in the module
// name are treated as path separators.
func ResolveFolder(module string) string {
	if module == "" {
		return filepath.Join(".", "migrations")
	}

	return filepath.Join(strings.ReplaceAll(module, ".", string(os.PathSeparator)), "migrations")
}

func InitCfg(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}

	defer func() {
		if err := f.Close(); err != nil {
			panic(err)
		}
	}()

	r := strings.NewReader(configFileStub)

	if _, err := io.Copy(f, r); err != nil {
		return err
	}

	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}

	return !info.IsDir()
}
