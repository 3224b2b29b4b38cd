package root

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/models"
	"github.com/taskventure/backend/internal/ui"
)

func newQuestsCmd() *cobra.Command {
	var showTasks bool

	cmd := &cobra.Command{
		Use:   "quests",
		Short: "List quests and their completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()
			a, cleanup, err := openApp(ctx, out)
			if err != nil {
				return err
			}
			defer cleanup()

			resp := a.Quests.List()
			if len(resp.Quests) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No quests yet. Try: questctl generate \"water the plants\""))
				return nil
			}

			fmt.Fprintln(out, ui.Heading(ui.IconQuest, fmt.Sprintf("Quests (%d)", len(resp.Quests))))
			for _, q := range resp.Quests {
				printQuest(out, q, q.Index == resp.CurrentQuestIndex, showTasks)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showTasks, "tasks", "t", false, "show each quest's tasks")
	return cmd
}

func printQuest(out io.Writer, q models.QuestView, current, showTasks bool) {
	marker := " "
	if current {
		marker = ui.Key.Render(">")
	}
	title := q.Title
	if q.Complete {
		title = ui.Good.Render(title)
	}
	fmt.Fprintf(out, "%s %d. %s %s %s %s\n",
		marker, q.Index+1, title, ui.Tier(q.Complexity),
		ui.Gold.Render(fmt.Sprintf("%d XP", q.XPReward)),
		ui.Muted.Render(fmt.Sprintf("%d/%d  %s", len(q.Completed), len(q.Tasks), q.ID)),
	)
	if !showTasks {
		return
	}
	done := make(map[int]bool, len(q.Completed))
	for _, i := range q.Completed {
		done[i] = true
	}
	for i, task := range q.Tasks {
		fmt.Fprintf(out, "     %s %d %s\n", ui.Checkbox(done[i]), i, task)
	}
}
