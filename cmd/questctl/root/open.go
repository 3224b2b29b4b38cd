package root

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/taskventure/backend/internal/app"
	"github.com/taskventure/backend/internal/config"
	"github.com/taskventure/backend/internal/quests"
	"github.com/taskventure/backend/internal/ui"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	// Keep the CLI output clean unless asked otherwise.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Log.Level = "warn"
	}
	return cfg, nil
}

func openApp(ctx context.Context, out io.Writer) (*app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Open(ctx, cfg, cfg.Log.NewLogger(os.Stderr))
	if err != nil {
		return nil, nil, err
	}
	printWarnings(out, a.Warnings)
	cleanup := func() {
		_ = a.Close()
	}
	return a, cleanup, nil
}

func printWarnings(out io.Writer, warnings []string) {
	if len(warnings) > 0 {
		fmt.Fprintln(out, ui.Warnings(warnings))
	}
}

// resolveQuest accepts a quest id or a 1-based position in the collection.
func resolveQuest(svc *quests.Service, ref string) (string, error) {
	if _, err := svc.Get(ref); err == nil {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		list := svc.List().Quests
		if n >= 1 && n <= len(list) {
			return list[n-1].ID, nil
		}
		return "", fmt.Errorf("no quest at position %d (have %d)", n, len(list))
	}
	return "", fmt.Errorf("quest %q not found", ref)
}
