package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/escrow-express/deal-bot/internal/archive"
	"github.com/escrow-express/deal-bot/internal/bot"
	"github.com/escrow-express/deal-bot/internal/engine"
)

type Config struct {
	Token        string `env:"BOT_TOKEN,required"`
	OwnerID      int64  `env:"OWNER_ID,required"`
	GroupID      int64  `env:"GROUP_ID,required"`
	LogChannelID int64  `env:"LOG_CHANNEL_ID,required"`

	ArchivePath      string        `env:"ARCHIVE_PATH" envDefault:"./data/deals.db"`
	ArchiveRetention time.Duration `env:"ARCHIVE_RETENTION" envDefault:"720h"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
	ConfirmDeadline  time.Duration `env:"CONFIRM_DEADLINE" envDefault:"1h"`
	CaptchaAttempts  int           `env:"CAPTCHA_ATTEMPTS" envDefault:"5"`
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Info().Msg("initializing deal archive")
	arc, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open deal archive")
	}
	defer arc.Close()

	logger.Info().Msg("starting telegram bot")
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create bot")
	}
	logger.Info().Str("account", api.Self.UserName).Msg("authorized")

	notifier := bot.NewNotifier(api, cfg.GroupID, cfg.LogChannelID, logger)
	registry := engine.NewRegistry()
	eng := engine.New(registry, arc, notifier, cfg.OwnerID, cfg.ConfirmDeadline, logger)
	gate := engine.NewGate(cfg.CaptchaAttempts)
	intake := engine.NewIntake()

	b := bot.New(api, eng, gate, intake, arc, cfg.OwnerID, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Expiration sweep for unconfirmed deals.
	go eng.RunSweeper(ctx, cfg.SweepInterval)

	// Trim old archived deals.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := arc.Purge(cfg.ArchiveRetention)
				if err != nil {
					logger.Error().Err(err).Msg("failed to purge archived deals")
				} else if purged > 0 {
					logger.Info().Int64("purged", purged).Msg("purged archived deals")
				}
			}
		}
	}()

	logger.Info().Msg("bot is running")
	if err := b.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("bot error")
	}
	logger.Info().Msg("shutdown complete")
}
