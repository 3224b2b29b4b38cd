// Package app builds the quest services from configuration. The server and
// questctl both start here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskventure/backend/internal/config"
	"github.com/taskventure/backend/internal/credentials"
	qerrors "github.com/taskventure/backend/internal/errors"
	"github.com/taskventure/backend/internal/gamification"
	"github.com/taskventure/backend/internal/generator"
	"github.com/taskventure/backend/internal/kv"
	"github.com/taskventure/backend/internal/quests"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     kv.Store
	Ledger    *gamification.Ledger
	Vault     *credentials.Vault
	Generator *generator.Generator
	Quests    *quests.Service

	// Warnings collected while loading persisted state.
	Warnings []string
}

// Open connects storage and loads every store. Only configuration and
// connection failures are fatal; unreadable state comes back in Warnings.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	return build(ctx, cfg, store, logger)
}

func build(ctx context.Context, cfg *config.Config, store kv.Store, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Store: store}

	a.Vault = credentials.NewVault(store, cfg.Auth.CredentialSecret, map[string]string{
		generator.KeyAnthropic:  cfg.Generator.AnthropicAPIKey,
		generator.KeyOpenRouter: cfg.Generator.OpenRouterAPIKey,
	}, logger)
	if err := a.Vault.Load(ctx); err != nil {
		a.Warnings = append(a.Warnings, qerrors.Message(err))
	}

	a.Ledger = gamification.NewLedger(gamification.NewStore(store), logger)
	if err := a.Ledger.Load(ctx); err != nil {
		a.Warnings = append(a.Warnings, qerrors.Message(err))
	}

	gen, err := generator.NewGenerator(cfg.Generator, a.Vault, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build generator: %w", err)
	}
	a.Generator = gen

	a.Quests = quests.NewService(
		quests.NewCollection(store, logger),
		quests.NewCompletionStore(store, logger),
		quests.NewCurrentIndex(store, logger),
		a.Ledger,
		gen,
		logger,
	)
	a.Warnings = append(a.Warnings, a.Quests.Load(ctx)...)

	for _, w := range a.Warnings {
		logger.Warn("load warning", "warning", w)
	}
	logger.Info("taskventure ready",
		"storage", cfg.Storage.Driver,
		"provider", cfg.Generator.Provider,
		"model", gen.ModelName(),
		"total_xp", a.Ledger.TotalXP(),
	)
	return a, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
