package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/ui"
)

func newToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <quest> <task-index>",
		Short: "Flip a task of a quest between done and not done",
		Long:  "Quest is a quest id or its 1-based position from `questctl quests`. Task index is 0-based.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("quest and task index are required")
			}
			if _, err := strconv.Atoi(args[1]); err != nil {
				return errors.New("task index must be an integer")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()
			a, cleanup, err := openApp(ctx, out)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveQuest(a.Quests, args[0])
			if err != nil {
				return err
			}
			index, _ := strconv.Atoi(args[1])

			resp, err := a.Quests.ToggleTask(ctx, id, index)
			if err != nil {
				return err
			}

			q := resp.Quest
			fmt.Fprintf(out, "%s %s %s\n", ui.Checkbox(containsInt(q.Completed, index)), q.Tasks[index], ui.Muted.Render(fmt.Sprintf("(%d/%d)", len(q.Completed), len(q.Tasks))))
			if r := resp.Reward; r != nil {
				fmt.Fprintln(out, ui.Heading(ui.IconTrophy, fmt.Sprintf("Quest complete! +%d XP", r.XPGained)))
				fmt.Fprintln(out, ui.LabelValue("Total XP", r.TotalXP))
				if r.LeveledUp {
					fmt.Fprintf(out, "%s %s %d → %d\n", ui.IconBolt, ui.BadgeLevelUp, r.PreviousLevel, r.Level)
				}
			}
			printWarnings(out, resp.Warnings)
			return nil
		},
	}
	return cmd
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
