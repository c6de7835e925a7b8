// Command mongrate drives migrations from the command line. Migration units
// are compiled into the binary: build a project-specific runner that links
// your migrations package with a blank import, see examples/main.go.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmsavelev/mongrate/internal/cli"
	"github.com/logrusorgru/aurora/v3"
	"github.com/spf13/cobra"
)

const defaultConfigPath = ".mongrate.yaml"

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "mongrate",
		Short:         "Sequential MongoDB migration runner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, "path to the configuration file")

	migrateCmd := &cobra.Command{
		Use:   "migrate <module>",
		Short: "Apply all pending migrations under <module>/migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var module string
			if len(args) == 1 {
				module = args[0]
			}

			return withApp(cfgPath, module, func(ctx context.Context, app *cli.App) error {
				return app.Migrate(ctx)
			})
		},
	}

	migrateOneCmd := &cobra.Command{
		Use:   "migrate-one [<module>] <migration>",
		Short: "Apply exactly one named migration",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, key := splitArgs(args)

			return withApp(cfgPath, module, func(ctx context.Context, app *cli.App) error {
				return app.MigrateOne(ctx, key)
			})
		},
	}

	rollbackCmd := &cobra.Command{
		Use:   "rollback [<module>] <migration>",
		Short: "Roll back exactly one named migration",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, key := splitArgs(args)

			return withApp(cfgPath, module, func(ctx context.Context, app *cli.App) error {
				return app.Rollback(ctx, key)
			})
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file stub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.FileExists(cfgPath) {
				return fmt.Errorf("configuration file [%s] already exists", cfgPath)
			}

			return cli.InitCfg(cfgPath)
		},
	}

	rootCmd.AddCommand(migrateCmd, migrateOneCmd, rollbackCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(aurora.Red("mongrate: "), err.Error())
		os.Exit(1)
	}

	fmt.Println(aurora.Green("mongrate: "), "all done")
}

func splitArgs(args []string) (module, key string) {
	if len(args) == 2 {
		return args[0], args[1]
	}

	return "", args[0]
}

func withApp(cfgPath, module string, run func(ctx context.Context, app *cli.App) error) (err error) {
	cfg, err := cli.ConfigFromYaml(cfgPath)
	if err != nil {
		return err
	}

	cfg.MigrationsFolder = cli.ResolveFolder(module)

	app, closer, err := cli.New(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closer(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return run(context.Background(), app)
}
