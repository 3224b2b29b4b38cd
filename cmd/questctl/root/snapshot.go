package root

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/models"
	"github.com/taskventure/backend/internal/ui"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write quests, completion and XP to a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := json.MarshalIndent(a.Quests.Export(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			data = append(data, '\n')

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Good.Render(ui.IconDone+" snapshot written to "+output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <snapshot.json>",
		Short: "Replace the whole state with a snapshot",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("snapshot file is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			var snap models.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			ctx := context.Background()
			out := cmd.OutOrStdout()
			a, cleanup, err := openApp(ctx, out)
			if err != nil {
				return err
			}
			defer cleanup()

			warnings, err := a.Quests.Restore(ctx, snap)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Good.Render(fmt.Sprintf("%s restored %d quests, %d XP", ui.IconDone, len(snap.Quests), snap.Ledger.TotalXP)))
			printWarnings(out, warnings)
			return nil
		},
	}
	return cmd
}
