package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aliskhannn/flashquiz-bot/internal/config"
	"github.com/aliskhannn/flashquiz-bot/internal/delivery/telegram"
	"github.com/aliskhannn/flashquiz-bot/internal/logger"
	"github.com/aliskhannn/flashquiz-bot/internal/repository"
	"github.com/aliskhannn/flashquiz-bot/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd.Context())
	},
}

var botCommands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Start the bot"},
	{Command: "decks", Description: "List decks"},
	{Command: "study", Description: "Study a deck (usage: /study go)"},
	{Command: "progress", Description: "Session progress"},
	{Command: "more", Description: "Add more cards"},
	{Command: "reset", Description: "Start the session over"},
	{Command: "submit", Description: "Finish and save the session"},
	{Command: "stop", Description: "Drop the session"},
	{Command: "history", Description: "Recent results"},
	{Command: "help", Description: "Help"},
}

func runBot(parent context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err = cfg.RequireBot(); err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deckRepo, err := repository.NewDeckRepository(cfg.Decks.Path)
	if err != nil {
		return fmt.Errorf("load decks: %w", err)
	}

	storage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.Close()

	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	studyService := service.NewStudyService(deckRepo, storage, service.StudyConfig{
		SessionSize:   cfg.Study.SessionSize,
		IdleTimeout:   cfg.Study.IdleTimeout,
		SubmitRetries: cfg.Study.SubmitRetries,
		RetryBackoff:  cfg.Study.RetryBackoff,
	}, log)
	defer studyService.Wait()

	sweeper := service.NewSessionSweeper(studyService, cfg.Study.SweepSchedule, log)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return fmt.Errorf("init telegram bot: %w", err)
	}
	bot.Debug = cfg.Env == "local"

	if _, err = bot.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		log.Warn("failed to set bot commands", zap.Error(err))
	}

	log.Info("authorized on account", zap.String("username", bot.Self.UserName))

	handler := telegram.NewHandler(
		bot,
		log,
		studyService,
		service.NewDeckService(deckRepo),
		service.NewHistoryService(storage),
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(handler.Run)
	p.Go(sweeper.Start)

	if err = p.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("shutdown signal received")
	return nil
}
