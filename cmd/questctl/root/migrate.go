package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/kv"
	"github.com/taskventure/backend/internal/ui"
)

// openSQL opens the configured SQL store. Opening already applies pending
// migrations, so "up" only has to report.
func openSQL(ctx context.Context) (*kv.SQLStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	sqlStore, ok := store.(*kv.SQLStore)
	if !ok {
		store.Close()
		return nil, fmt.Errorf("storage driver %q has no schema", cfg.Storage.Driver)
	}
	return sqlStore, nil
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the storage schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openSQL(context.Background())
				if err != nil {
					return err
				}
				defer store.Close()
				if err := kv.MigrateUp(store.DB(), store.Dialect()); err != nil {
					return err
				}
				return printVersion(cmd, store)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert every migration, dropping the stored state",
			RunE: func(cmd *cobra.Command, args []string) error {
				yes, _ := cmd.Flags().GetBool("yes")
				if !yes {
					return errors.New("this drops all quests and XP; rerun with --yes")
				}
				store, err := openSQL(context.Background())
				if err != nil {
					return err
				}
				defer store.Close()
				if err := kv.MigrateDown(store.DB(), store.Dialect()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("schema reverted"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := openSQL(context.Background())
				if err != nil {
					return err
				}
				defer store.Close()
				return printVersion(cmd, store)
			},
		},
	)
	cmd.PersistentFlags().Bool("yes", false, "confirm destructive migrations")
	return cmd
}

func printVersion(cmd *cobra.Command, store *kv.SQLStore) error {
	version, dirty, err := kv.MigrationVersion(store.DB(), store.Dialect())
	if err != nil {
		return err
	}
	state := ui.Good.Render("clean")
	if dirty {
		state = ui.Bad.Render("dirty")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.LabelValue("Schema version", version), state)
	return nil
}
