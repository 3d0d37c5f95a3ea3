package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/timofeiryko/tg-marketing-bot/internal/campaign"
	"github.com/timofeiryko/tg-marketing-bot/internal/config"
	"github.com/timofeiryko/tg-marketing-bot/internal/domain"
	"github.com/timofeiryko/tg-marketing-bot/internal/payment"
	"github.com/timofeiryko/tg-marketing-bot/internal/scheduler"
	"github.com/timofeiryko/tg-marketing-bot/internal/sheets"
	"github.com/timofeiryko/tg-marketing-bot/internal/store"
	"github.com/timofeiryko/tg-marketing-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	sched   *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting marketing-bot",
		zap.Time("selling_at", a.cfg.SellingAt),
		zap.Duration("followup_offset", a.cfg.FollowupOffset),
		zap.String("http", a.cfg.HTTPAddr),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	var exporter payment.Exporter = sheets.Nop{}
	if a.cfg.SheetID != "" {
		exp, err := sheets.New(ctx, a.cfg.SheetCredentials, a.cfg.SheetID, a.cfg.SheetRange)
		if err != nil {
			a.log.Error("sheets init failed", zap.Error(err))
			return err
		}
		exporter = exp
		a.log.Info("sheets export enabled")
	}

	sender := telegram.NewSender(a.bot, a.cfg.ProviderToken)
	workflow := payment.NewWorkflow(repo, repo, sender, exporter, a.log, a.cfg.Price, a.cfg.Currency)
	orch := campaign.New(repo, a.log, a.cfg.SellingAt, a.cfg.FollowupOffset)
	a.router = telegram.NewRouter(sender, a.log, repo, workflow, orch,
		a.cfg.PromoPhotoPath, a.cfg.PromoFilePath)

	// Re-upserting by name on every start keeps exactly one scheduled
	// broadcast across restarts.
	if err := orch.EnsureBroadcast(ctx); err != nil {
		a.log.Error("ensure broadcast failed", zap.Error(err))
		return err
	}

	a.sched = scheduler.New(repo, a.log, a.cfg.PollInterval)
	a.sched.Register(domain.KindBroadcastSell, a.router.BroadcastSell)
	a.sched.Register(domain.KindMorningFollowup, a.router.MorningFollowup)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.sched.Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
