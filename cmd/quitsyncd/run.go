package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/config"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/logging"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/network"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/notify"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/remote"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/storage"
	syncpkg "github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync/queue"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync/reconcile"
	"github.com/HamiedNabizada/smoke-free-tracker-sub001/internal/sync/scheduler"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the background sync daemon",
		RunE:  runDaemon,
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(os.Stdout, cfg.App.LogLevel)

	store, err := storage.Open(cfg.App.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	q := queue.New(store)

	var docs remote.DocumentStore
	var prober network.Prober
	if cfg.Remote.BaseURL == "" {
		logging.Warn("no remote configured, using in-memory document store", nil)
		docs = remote.NewMemoryStore()
		prober = network.ProbeFunc(func(context.Context) bool { return true })
	} else {
		docs = remote.NewHTTPStore(remote.HTTPStoreOptions{
			BaseURL:    cfg.Remote.BaseURL,
			APIKey:     cfg.Remote.APIKey,
			HTTPClient: &http.Client{Timeout: cfg.Remote.Timeout},
			UserAgent:  "quitsyncd/" + version,
		})
		prober = network.NewHTTPProbe(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	}

	engine := syncpkg.NewEngine(syncpkg.Config{
		Queue:       q,
		Applier:     reconcile.NewApplier(docs),
		Identity:    remote.StaticIdentity{UserID: cfg.Remote.UserID},
		Notifier:    notify.Log{},
		StaleAfter:  cfg.Sync.StaleAfter,
		ItemTimeout: cfg.Sync.ItemTimeout,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	initial := network.StateOffline
	if prober.Check(ctx) {
		initial = network.StateOnline
	}
	monitor := network.NewMonitor(network.Config{
		Initial:        initial,
		ReconnectDelay: cfg.Sync.ReconnectDelay,
		Notifier:       notify.Log{},
		OnReconnect: func() {
			// AfterFunc already runs this on its own goroutine; a
			// concurrent pass just returns ErrDrainInProgress.
			_, _ = engine.Drain(ctx)
		},
	})

	sched := scheduler.New(engine, monitor, prober, &scheduler.Config{
		ProbeInterval: cfg.Sync.ProbeInterval,
		DrainInterval: cfg.Sync.DrainInterval,
	})
	sched.Start(ctx)

	logging.Info("quitsyncd running", map[string]any{
		"data_dir": cfg.App.DataDir,
		"state":    string(monitor.State()),
		"pending":  q.Len(),
	})

	<-ctx.Done()
	sched.Stop()
	return nil
}
