package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinPilot/internal/config"
	"CoinPilot/internal/dashboard"
	"CoinPilot/internal/ledger"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CoinPilot dashboard starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}

	lg, err := ledger.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] open trade ledger: %v", err)
	}
	defer lg.Close()

	srv := dashboard.NewServer(lg, cfg.Dashboard.InitialBalance)
	srv.Start(cfg.Dashboard.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Printf("[ERROR] dashboard shutdown: %v", err)
	}
	log.Println("[INFO] dashboard stopped")
}
