package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rewired-gh/oddsticker/internal/config"
	"github.com/rewired-gh/oddsticker/internal/display"
	"github.com/rewired-gh/oddsticker/internal/kalshi"
	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/rewired-gh/oddsticker/internal/monitor"
	"github.com/rewired-gh/oddsticker/internal/polymarket"
	"github.com/rewired-gh/oddsticker/internal/storage"
	"github.com/rewired-gh/oddsticker/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	envPath    = flag.String("env", ".env", "Path to .env file with credentials")
	once       = flag.Bool("once", false, "Run a single cycle and exit")
)

func main() {
	flag.Parse()

	loadedEnv, err := config.LoadDotEnv(*envPath)
	if err != nil {
		log.Fatalf("Failed to load env file: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)
	if !loadedEnv {
		logger.Debug("No env file at %s, using environment variables", *envPath)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Failed to load time zone: %v", err)
	}

	store, err := storage.New(cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	src, err := newSource(cfg, store)
	if err != nil {
		logger.Fatal("Failed to initialize quote source: %v", err)
	}

	mon := monitor.New(monitor.Config{
		Scale:        cfg.Scale(),
		Threshold:    cfg.Monitor.Threshold,
		Window:       cfg.Monitor.Window,
		RecordMovers: cfg.Monitor.RecordMovers,
	})

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	app := &tickerApp{
		cfg:     cfg,
		loc:     loc,
		source:  src,
		store:   store,
		monitor: mon,
		out:     os.Stdout,
	}
	if telegramClient != nil {
		app.notifier = telegramClient
		telegramClient.SetStatusProvider(app.Status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
	}

	logger.Info("Starting ticker (source: %s, interval: %v, scale: %s, threshold: %g, window: %v)",
		src.Name(),
		cfg.Monitor.RefreshInterval,
		cfg.Scale(),
		cfg.Monitor.Threshold,
		cfg.Monitor.Window,
	)

	logger.Debug("Running initial cycle")
	app.handleCycleResult(app.runCycle(ctx))
	if *once {
		return
	}

	ticker := time.NewTicker(cfg.Monitor.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			app.handleCycleResult(app.runCycle(ctx))
		}
	}
}

func newSource(cfg *config.Config, store *storage.Storage) (quoteSource, error) {
	switch cfg.Source.Mode {
	case config.SourceKalshi:
		return newKalshiSource(cfg, store)
	case config.SourcePolymarket:
		pm := cfg.Polymarket
		return &polymarketSource{
			client:    polymarket.NewClient(pm.GammaAPIURL, pm.Timeout, pm.MaxRetries, pm.RetryDelayBase),
			store:     store,
			eventSlug: pm.EventSlug,
		}, nil
	default:
		return &storeSource{store: store}, nil
	}
}

func newKalshiSource(cfg *config.Config, store *storage.Storage) (quoteSource, error) {
	opts := []kalshi.ClientOption{
		kalshi.WithTimeout(cfg.Kalshi.Timeout),
		kalshi.WithRetries(cfg.Kalshi.MaxRetries, cfg.Kalshi.RetryBackoff),
	}
	if cfg.Kalshi.KeyID != "" {
		creds, err := kalshi.LoadCredentials(cfg.Kalshi.KeyID, cfg.Kalshi.PrivateKeyPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kalshi.WithCredentials(creds))
	}

	return &kalshiSource{
		client: kalshi.NewClient(cfg.Kalshi.BaseURL, opts...),
		store:  store,
		opts: kalshi.GetMarketsOptions{
			SeriesTicker: cfg.Kalshi.SeriesTicker,
			EventTicker:  cfg.Kalshi.EventTicker,
			Status:       cfg.Kalshi.Status,
		},
	}, nil
}

// notifier receives mover documents and cycle health changes.
type notifier interface {
	SendMovers(doc *models.MoverDocument, scale models.Scale, loc *time.Location) error
	SendError(cycleErr error) error
	SendRecovery(failureCount int) error
}

// tickerApp runs polling cycles. Only the main loop calls runCycle, so the
// monitor's retained state has a single owner.
type tickerApp struct {
	cfg      *config.Config
	loc      *time.Location
	source   quoteSource
	store    *storage.Storage
	monitor  *monitor.Monitor
	notifier notifier
	out      io.Writer
	now      func() time.Time

	consecutiveFailures int

	mu     sync.RWMutex
	status string
}

func (a *tickerApp) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// Status summarizes the last cycle for the /status command.
func (a *tickerApp) Status() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.status == "" {
		return "No cycle has run yet."
	}
	return a.status
}

func (a *tickerApp) setStatus(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = fmt.Sprintf(format, args...)
}

func (a *tickerApp) handleCycleResult(err error) {
	if err != nil {
		a.consecutiveFailures++
		logger.Error("Cycle failed: %v", err)
		a.setStatus("Last cycle failed (%d in a row): %v", a.consecutiveFailures, err)
		if a.consecutiveFailures == 1 && a.notifier != nil {
			if sendErr := a.notifier.SendError(err); sendErr != nil {
				logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
			}
		}
		return
	}

	if a.consecutiveFailures > 0 && a.notifier != nil {
		if sendErr := a.notifier.SendRecovery(a.consecutiveFailures); sendErr != nil {
			logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
		}
	}
	a.consecutiveFailures = 0
}

// runCycle polls the source once, records and announces movers, commits the
// retained state, and redraws the dashboard. The state is committed only once
// the movers are in the log, so a failed poll or append leaves it untouched
// and the next poll records the move again. A later read or render failure
// still fails the cycle because the dashboard was not drawn, but the logged
// move is not recorded twice.
func (a *tickerApp) runCycle(ctx context.Context) error {
	startTime := time.Now()

	raw, err := a.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch quotes: %w", err)
	}

	now := a.clock()
	cycle := a.monitor.Evaluate(raw, now)
	scale := a.monitor.Config().Scale

	if cycle.Movers != nil {
		if err := a.store.AppendMovers(cycle.Movers); err != nil {
			return fmt.Errorf("failed to record movers: %w", err)
		}
		logger.Info("Recorded %d movers", len(cycle.Movers.Items))
	}
	a.monitor.Commit(cycle)

	if cycle.Movers != nil && a.notifier != nil {
		if err := a.notifier.SendMovers(cycle.Movers, scale, a.loc); err != nil {
			logger.Error("Failed to send Telegram notification: %v", err)
		}
	}

	recent, err := a.store.RecentMovers(a.cfg.Monitor.MoverDocsLimit)
	if err != nil {
		return fmt.Errorf("failed to load recent movers: %w", err)
	}
	windowDocs, err := a.store.MoversSince(now.Add(-a.cfg.Monitor.Window))
	if err != nil {
		return fmt.Errorf("failed to load movers in window: %w", err)
	}
	net := a.monitor.NetMovers(windowDocs, now)

	view := display.BuildView(display.Input{
		Title:    a.cfg.Display.Title,
		Snapshot: cycle.Snapshot,
		Deltas:   cycle.Deltas,
		Recent:   recent,
		Net:      net,
		Scale:    scale,
		Window:   a.cfg.Monitor.Window,
		Now:      now,
		Location: a.loc,
	})
	if err := display.Render(a.out, view, display.Options{
		ClearScreen: a.cfg.Display.ClearScreen,
		NoColor:     a.cfg.Display.NoColor,
	}); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}

	recorded := 0
	if cycle.Movers != nil {
		recorded = len(cycle.Movers.Items)
	}
	a.setStatus("%d markets at %s, %d movers recorded, %d instruments moved in the last %s",
		cycle.Snapshot.Len(), now.In(a.loc).Format("3:04:05 PM MST"), recorded, len(net), display.WindowText(a.cfg.Monitor.Window))

	logger.Debug("Cycle completed in %v", time.Since(startTime))
	return nil
}
