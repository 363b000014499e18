package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/marketbay/marketd/internal/config"
	"github.com/marketbay/marketd/internal/gateway"
	"github.com/marketbay/marketd/internal/infrastructure/websocket"
	"github.com/marketbay/marketd/internal/ledger"
	"github.com/marketbay/marketd/internal/registry"
	"github.com/marketbay/marketd/internal/server"
	"github.com/marketbay/marketd/internal/settlement"
	"github.com/marketbay/marketd/pkg/logger"
	"github.com/marketbay/marketd/pkg/shutdown"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("MARKETD_CONFIG"), "YAML config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		Compress:   true,
	}); err != nil {
		logrus.Fatalf("init logging: %v", err)
	}

	store, err := registry.Open(registry.OpenOptions{Path: filepath.Join(cfg.DataDir, "registry")})
	if err != nil {
		logrus.Fatalf("open listing registry: %v", err)
	}
	defer store.Close()

	funds, err := ledger.Open(filepath.Join(cfg.DataDir, "ledger.db"))
	if err != nil {
		logrus.Fatalf("open fund ledger: %v", err)
	}
	defer funds.Close()

	minDeposit, err := cfg.MinDepositAmount()
	if err != nil {
		logrus.Fatalf("min deposit: %v", err)
	}

	hub := websocket.NewHub()
	defer hub.Close()

	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.GatewayTimeout())
	svc := settlement.New(settlement.Config{
		MinDeposit:     minDeposit,
		TransferMemo:   cfg.TransferMemo,
		GatewayTimeout: cfg.GatewayTimeout(),
	}, store, gw, funds, hub)

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.New(svc, hub).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logrus.Infof("marketd listening on %s", cfg.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("http server error: %v", err)
		}
	}()

	mgr := shutdown.NewManager()
	mgr.OnShutdown(func(ctx context.Context) {
		if err := httpSrv.Shutdown(ctx); err != nil {
			logrus.Errorf("http shutdown: %v", err)
		}
	})
	// Let in-flight purchases resolve so no ticket is abandoned.
	mgr.OnShutdown(func(context.Context) { svc.Wait() })
	mgr.OnShutdown(func(context.Context) { hub.Close() })

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mgr.Shutdown(shutdownCtx)
}
