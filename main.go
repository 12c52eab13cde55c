package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"spot-trading-bot/config"
	"spot-trading-bot/internal/api"
	"spot-trading-bot/internal/binance"
	"spot-trading-bot/internal/bot"
	"spot-trading-bot/internal/execution"
	"spot-trading-bot/internal/gate"
	"spot-trading-bot/internal/journal"
	"spot-trading-bot/internal/logging"
	"spot-trading-bot/internal/market"
	"spot-trading-bot/internal/notification"
	"spot-trading-bot/internal/risk"
	"spot-trading-bot/internal/router"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		signalOnly = flag.Bool("signal-only", false, "emit signals without executing")
		once       = flag.Bool("once", false, "run one tick and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}

	mode, err := router.ResolveMode(cfg.Mode)
	if err != nil {
		logger.Fatal().Err(err).Msg("mode resolution failed")
	}
	logger.Info().Str("mode", mode).Strs("symbols", cfg.Symbols).Msg("starting")

	lock := bot.NewRunnerLock(filepath.Join(cfg.LogsDir, "runner.pid"))
	if err := lock.Acquire(); err != nil {
		logger.Fatal().Err(err).Msg("runner lock")
	}
	defer lock.Release()

	jrnl := journal.New(cfg.LogsDir, logging.Component(logger, "journal"))
	dailyLoss := risk.NewDailyLoss(cfg.LogsDir)
	// The kill switch only arms real-money trading; paper and testnet run
	// with a zero limit, which Blocked treats as disabled.
	kill := execution.KillSwitch{CurrentLoss: dailyLoss.Current}
	if mode == router.ModeLive {
		kill.MaxDailyLossEUR = cfg.Trading.MaxDailyLossEUR
	}

	baseURL := cfg.BinanceBaseURL(mode)
	marketClient := binance.NewClient(baseURL)
	spotClient := binance.NewSpotClient(cfg.Binance.APIKey, cfg.Binance.SecretKey, baseURL)

	snapshots := market.NewBuilder(marketClient, logging.Component(logger, "market"))

	paper := &router.PaperBroker{Journal: jrnl}
	exec := &execution.Executor{
		Sender:  spotClient,
		Journal: jrnl,
		Kill:    kill,
		Mode:    mode,
		Log:     logging.Component(logger, "execution"),
	}

	rt := &router.Router{
		Mode:           mode,
		Risk:           cfg.Risk,
		Leverage:       cfg.Trading.Leverage,
		DefaultBalance: cfg.Trading.DefaultBalance,
		UseOrderPlan:   cfg.Trading.UseOrderPlan,
		Balance: func() (float64, error) {
			return spotClient.GetBalance(cfg.Binance.QuoteAsset)
		},
		LotStep: func(symbol string) float64 {
			info, err := marketClient.GetExchangeInfo()
			if err != nil {
				return 0
			}
			for _, s := range info.Symbols {
				if s.Symbol == symbol {
					return s.LotStep()
				}
			}
			return 0
		},
		Paper:    paper,
		Executor: exec,
		Journal:  jrnl,
		Log:      logging.Component(logger, "router"),
	}

	notify := notification.NewManager(logging.Component(logger, "notify"))
	notify.Add(notification.NewTelegramNotifier(notification.TelegramConfig{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
	}, logging.Component(logger, "telegram")))

	pipeline := &bot.Bot{
		Symbols:    cfg.Symbols,
		Snapshot:   snapshots,
		Risk:       cfg.Risk,
		Router:     rt,
		Journal:    jrnl,
		Clamp:      gate.NewDailyClamp(cfg.LogsDir),
		Cooldown:   gate.NewCooldown(time.Duration(cfg.Schedule.CooldownMin) * time.Minute),
		Notify:     notify,
		SignalOnly: *signalOnly,
		Log:        logging.Component(logger, "bot"),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *api.Server
	if cfg.Server.Enabled {
		started := time.Now().UTC()
		srv = api.NewServer(cfg.Server.Addr, func() api.Status {
			return api.Status{
				Mode:          mode,
				Symbols:       cfg.Symbols,
				StartedAt:     started,
				LastTickAt:    pipeline.LastTick(),
				OpenPositions: paper.OpenCount(),
				DailyLossEUR:  dailyLoss.Current(),
				KillSwitch:    kill.Blocked(),
			}
		}, jrnl.Dir(), logging.Component(logger, "api"))
		srv.Start()
	}

	if *once {
		pipeline.RunTick(ctx)
	} else {
		sched := bot.NewScheduler(time.Duration(cfg.Schedule.IntervalMin)*time.Minute, logging.Component(logger, "scheduler"))
		sched.Run(ctx, pipeline.RunTick)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("server shutdown")
		}
	}
	logger.Info().Msg("shutdown complete")
}
