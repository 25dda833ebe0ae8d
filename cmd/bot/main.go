package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"CoinPilot/internal/advisor"
	"CoinPilot/internal/broker"
	"CoinPilot/internal/collector"
	"CoinPilot/internal/config"
	"CoinPilot/internal/ledger"
	"CoinPilot/internal/notifier"
	"CoinPilot/internal/scheduler"
	"CoinPilot/internal/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] CoinPilot starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init exchange gateway
	var bk broker.Broker
	if os.Getenv("DRY_RUN") == "true" {
		mock := broker.NewMock()
		mock.Cash = decimal.NewFromInt(1_000_000)
		for _, m := range cfg.Markets {
			mock.Prices[cfg.Market(m.Symbol)] = decimal.NewFromInt(100_000)
		}
		bk = mock
	} else {
		bk = broker.NewUpbit(cfg.Exchange.BaseURL, cfg.Exchange.AccessKey, cfg.Exchange.SecretKey)
	}
	log.Printf("[INFO] exchange: %s", bk.Name())

	// Init trade ledger
	lg, err := ledger.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] open trade ledger: %v", err)
	}
	defer lg.Close()

	// Init Discord notifier
	dn := notifier.NewDiscord(cfg.Discord.WebhookURL)

	// Init trading session
	markets := make([]session.Allocation, 0, len(cfg.Markets))
	for _, m := range cfg.Markets {
		markets = append(markets, session.Allocation{
			Market:     cfg.Market(m.Symbol),
			Symbol:     m.Symbol,
			Allocation: decimal.NewFromFloat(m.Allocation),
		})
	}
	sess := session.New(bk, lg, dn, markets)
	sess.FeeRate = decimal.NewFromFloat(cfg.Trade.FeeRate)
	sess.MinOrder = decimal.NewFromFloat(cfg.Trade.MinOrder)
	sess.CandleInterval = cfg.Trade.CandleInterval
	sess.CandleCount = cfg.Trade.CandleCount
	if err := sess.RestoreState(cfg.Trade.StateFile); err != nil {
		log.Fatalf("[FATAL] restore session state: %v", err)
	}

	// Optional LLM advisor
	if cfg.Advisor.Enabled {
		feeds := collector.NewFeeds(cfg.Feeds.FearGreedURL, cfg.Feeds.SerpAPIKey)
		sess.Collector = collector.NewCollector(bk, feeds)
		sess.Advisor = advisor.NewClient(cfg.Advisor.OpenAIKey, cfg.Advisor.Model)
		log.Printf("[INFO] advisor enabled: %s", cfg.Advisor.Model)
	} else {
		log.Println("[INFO] advisor disabled, crossover strategy decides")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, sess)
	if err := sched.Register(cfg.Trade.IntervalMinutes); err != nil {
		log.Fatalf("[FATAL] register trading cycle: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing trading cycle now")
		go sched.RunNow()
	}

	log.Println("[INFO] CoinPilot is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] CoinPilot stopped")
}
