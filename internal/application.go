package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerplay/tictactoe-wager/internal/config"
	"github.com/ledgerplay/tictactoe-wager/internal/ledger"
	"github.com/ledgerplay/tictactoe-wager/internal/repository"
	"github.com/ledgerplay/tictactoe-wager/internal/repository/storage"
	"github.com/ledgerplay/tictactoe-wager/internal/service"
	"github.com/ledgerplay/tictactoe-wager/internal/usecase"
	"github.com/ledgerplay/tictactoe-wager/internal/validator"
	"github.com/ledgerplay/tictactoe-wager/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	gameRepo := repository.NewGameRepository(redisStorage.Connection)
	accountRepo := repository.NewAccountRepository(redisStorage.Connection)
	archiveRepo := repository.NewArchiveRepository(sqliteStorage.Connection)

	gameValidator := validator.New(conf.Game.WagerAmount, time.Duration(conf.Game.MoveTimeoutSeconds)*time.Second)

	ledgerInstance := ledger.New(
		logger,
		gameRepo,
		accountRepo,
		archiveRepo,
		gameValidator,
		conf.Game.FeeCeiling,
		ledger.SystemClock(),
	)

	authService := service.NewAuthService(conf.JWTSecretKey)

	funding := usecase.Funding{
		Wager:      conf.Game.WagerAmount,
		TxnFee:     conf.Game.TxnFee,
		SeedAmount: conf.Game.SeedAmount,
		EscrowFees: conf.Game.EscrowFeeFund,
	}

	gameUseCase := usecase.NewGameManager(logger, ledgerInstance, authService, funding)

	server := rest.New(logger, gameUseCase, authService)

	log.Info("Starting HTTP server", "port", conf.HTTPPort)
	if err = server.Start(ctx, conf.HTTPPort); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}
