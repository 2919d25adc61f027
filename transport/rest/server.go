package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ledgerplay/tictactoe-wager/internal/service"
	"github.com/ledgerplay/tictactoe-wager/internal/usecase"
)

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

func New(logger *slog.Logger, games usecase.GameUseCase, auth service.AuthService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second
	e.Server.IdleTimeout = 30 * time.Second

	h := newHandlers(logger, games, auth)

	e.GET("/ping", h.Ping)
	e.POST("/games", h.CreateGame)
	e.GET("/games/:id", h.GetGame)
	e.POST("/games/:id/start", h.StartGame)
	e.POST("/games/:id/moves", h.PlayAction)
	e.POST("/games/:id/refunds/win", h.WinRefund)
	e.POST("/games/:id/refunds/tie", h.TieRefund)

	return &Server{
		logger: logger.With("component", "rest"),
		echo:   e,
	}
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := that.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
