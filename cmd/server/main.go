package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"poolvault/config"
	"poolvault/internal/chain"
	"poolvault/internal/database"
	"poolvault/internal/events"
	"poolvault/internal/keystore"
	"poolvault/internal/repository"
	"poolvault/internal/router"
	"poolvault/internal/scheduler"
	"poolvault/internal/service"
	"poolvault/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	dialCtx, cancelDial := context.WithTimeout(context.Background(), 15*time.Second)
	client, err := chain.Dial(dialCtx, cfg.Chain.RPCURL)
	cancelDial()
	if err != nil {
		log.Fatalf("chain: %v", err)
	}
	defer client.Close()

	ks := keystore.New(cfg.Keystore.Secret)
	nonces := chain.NewNonceManager(client)
	hub := ws.NewHub()

	var pub events.Publisher
	hubPub := events.PublisherFunc(func(eventType string, event any) error {
		hub.Broadcast(eventType, event)
		return nil
	})
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPub.Close()
		pub = events.Fanout{kafkaPub, hubPub}
		log.Printf("[events] publishing to kafka topic %s", cfg.Kafka.Topic)
	} else {
		pub = events.Fanout{events.NopPublisher{}, hubPub}
		log.Printf("[events] no kafka brokers configured, events stay local")
	}

	walletRepo := repository.NewWalletRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	cursorRepo := repository.NewCursorRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)

	scanner := service.NewDepositScanner(client, walletRepo, depositRepo, cursorRepo, pub, cfg.Deposit, cfg.Chain)
	gasManager := service.NewGasManager(client, nonces, ks, walletRepo, cfg.Gas, cfg.Chain.Confirmations)
	sweepEngine := service.NewSweepEngine(client, nonces, ks, positionRepo, walletRepo, gasManager, pub, cfg.Sweep, cfg.Chain, cfg.Gas)
	processor := service.NewWithdrawalProcessor(client, nonces, ks, withdrawalRepo, walletRepo, gasManager, pub, cfg.Withdrawal, cfg.Chain)
	ledgerSvc := service.NewLedgerService(ledgerRepo, pub)

	sched := scheduler.New()
	mustRegister(sched, "deposit_scan", cfg.Deposit.ScanCron, func(ctx context.Context) error {
		return scanner.Scan(ctx, nil)
	})
	mustRegister(sched, "capital_sweep", cfg.Sweep.Cron, sweepEngine.Run)
	mustRegister(sched, "withdrawal_queue", cfg.Withdrawal.Cron, processor.ProcessNext)
	sched.Start()
	defer sched.Stop()

	engine := router.Setup(cfg, db, router.Deps{
		Scheduler: sched,
		Scanner:   scanner,
		Ledger:    ledgerSvc,
		Hub:       hub,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
	log.Println("server stopped")
}

func mustRegister(s *scheduler.Scheduler, name, spec string, fn func(context.Context) error) {
	if err := s.Register(name, spec, fn); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
}
