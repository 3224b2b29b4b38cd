package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskventure/backend/internal/models"
	"github.com/taskventure/backend/internal/ui"
)

func newGenerateCmd() *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "generate [task text...]",
		Short: "Turn a task list into quests with the configured generator",
		Example: `  questctl generate "write the quarterly report" "fix the sink"
  cat todo.txt | questctl generate --stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, "\n")
			if fromStdin {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				input = string(data)
			}
			if strings.TrimSpace(input) == "" {
				return errors.New("nothing to generate from: pass task text or --stdin")
			}

			out := cmd.OutOrStdout()
			a, cleanup, err := openApp(context.Background(), out)
			if err != nil {
				return err
			}
			defer cleanup()

			timeout := time.Duration(a.Config.Generator.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			fmt.Fprintln(out, ui.Muted.Render("Consulting the game master ("+a.Generator.ModelName()+")..."))
			resp, err := a.Quests.Generate(ctx, input)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, fmt.Sprintf("%d new quests", len(resp.Quests))))
			offset := len(a.Quests.List().Quests) - len(resp.Quests)
			for i, q := range resp.Quests {
				printQuest(out, models.QuestView{Quest: q, Index: offset + i, Completed: []int{}}, false, true)
			}
			printWarnings(out, resp.Warnings)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the task list from standard input")
	return cmd
}
