package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var historyLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, XP and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()
			a, cleanup, err := openApp(ctx, out)
			if err != nil {
				return err
			}
			defer cleanup()

			p := a.Ledger.Progress()
			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Adventurer Status"))
			fmt.Fprintln(out, ui.LabelValue("Level", p.Level))
			if p.Level >= gamification.MaxLevel {
				fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d (max level)", p.TotalXP)))
			} else {
				fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d (next at %d, %d to go)", p.TotalXP, p.NextLevelAt, p.XPToNextLevel)))
			}
			fmt.Fprintf(out, "%s %d%%\n", ui.ProgressBar(p.PercentToNextLevel, 30), p.PercentToNextLevel)
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render(ui.IconTrophy+" Achievements"))
			for _, ach := range p.Achievements {
				if ach.Earned {
					fmt.Fprintf(out, "- %s %s\n", ui.Gold.Render(ach.Name), ui.Muted.Render(ach.Description))
				} else {
					fmt.Fprintf(out, "- %s\n", ui.Muted.Render(ach.Name+" (locked)"))
				}
			}
			fmt.Fprintln(out, "")

			if len(p.History) > 0 {
				fmt.Fprintln(out, ui.H2.Render(ui.IconScroll+" Recent rewards"))
				for i, e := range p.History {
					if i == historyLimit {
						break
					}
					fmt.Fprintf(out, "- +%d XP %s %s\n", e.XPGained, e.QuestTitle, ui.Muted.Render(fmt.Sprintf("(level %d, %s)", e.Level, e.Timestamp)))
				}
			}
			printWarnings(out, p.Warnings)
			return nil
		},
	}

	cmd.Flags().IntVar(&historyLimit, "history", 5, "number of ledger entries to show")
	return cmd
}
