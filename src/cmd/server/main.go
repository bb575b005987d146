package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jade-bank/core-ledger/src/internal/adapter/audit"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/controller"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/middleware"
	"github.com/jade-bank/core-ledger/src/internal/adapter/http/router"
	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/memory"
	"github.com/jade-bank/core-ledger/src/internal/adapter/repository/postgres"
	"github.com/jade-bank/core-ledger/src/internal/config"
	"github.com/jade-bank/core-ledger/src/internal/domain"
	"github.com/jade-bank/core-ledger/src/internal/logger"
	"github.com/jade-bank/core-ledger/src/internal/usecase/services"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	sink, closeSink := openAuditSink(cfg)
	defer closeSink()

	channelKeyHash := cfg.ChannelKeyHash
	if channelKeyHash == "" {
		channelKeyHash, err = middleware.HashChannelKey(cfg.ChannelKey)
		if err != nil {
			log.Fatalf("hash channel key: %v", err)
		}
	}

	tolerance, err := cfg.Tolerance()
	if err != nil {
		log.Fatalf("emi tolerance: %v", err)
	}

	catalog := domain.DefaultCatalog()
	limits := services.NewDailyLimitTracker()
	ledger := services.NewLedgerService(store, limits, sink)
	kyc := services.NewKYCService(store, sink)
	owners := services.NewOwnerService(store, sink)
	accounts := services.NewAccountRegistry(store, catalog, ledger, limits, sink)
	loans := services.NewLoanService(store, services.NewAmortizationCalculator(catalog), ledger, tolerance, sink)

	basicAuth := middleware.BasicAuth(cfg.ChannelID, channelKeyHash)
	authMiddleware := func(next http.Handler) http.Handler {
		return basicAuth(middleware.Identity(next))
	}

	mux := router.New(router.Controllers{
		Owner:       controller.NewOwnerController(owners),
		KYC:         controller.NewKYCController(kyc),
		Account:     controller.NewAccountController(accounts),
		Transaction: controller.NewTransactionController(ledger),
		Loan:        controller.NewLoanController(loans),
	}, authMiddleware)

	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", logger.Fields{
			"address":     cfg.ServerAddress,
			"storeDriver": cfg.StoreDriver,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("http server shutting down", nil)
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("http server stopped", err, nil)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config) (domain.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart", nil)
		return memory.NewStore(), func() {}, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := postgres.Open(openCtx, cfg.DatabaseDSN, cfg.Pool())
	if err != nil {
		return nil, nil, err
	}

	applied, err := postgres.RunMigrations(openCtx, db, cfg.MigrationsDir)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	logger.Info("migrations completed", logger.Fields{"applied": applied})

	return postgres.NewStore(db, cfg.TxMaxRetries), func() { _ = db.Close() }, nil
}

func openAuditSink(cfg config.Config) (domain.AuditSink, func()) {
	if cfg.RabbitMQURL == "" {
		return audit.LogSink{}, func() {}
	}

	publisher, err := audit.NewPublisher(cfg.RabbitMQURL, cfg.AuditExchange)
	if err != nil {
		logger.Error("audit publisher unavailable, falling back to log sink", err, nil)
		return audit.LogSink{}, func() {}
	}
	return publisher, publisher.Close
}
