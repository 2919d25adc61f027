package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ledgerplay/tictactoe-wager/internal/apperror"
	"github.com/ledgerplay/tictactoe-wager/internal/entity"
	"github.com/ledgerplay/tictactoe-wager/internal/orchestrator"
	"github.com/ledgerplay/tictactoe-wager/internal/repository"
	"github.com/ledgerplay/tictactoe-wager/internal/service"
	"github.com/ledgerplay/tictactoe-wager/internal/usecase"
)

type handlers struct {
	logger *slog.Logger
	games  usecase.GameUseCase
	auth   service.AuthService
}

func newHandlers(logger *slog.Logger, games usecase.GameUseCase, auth service.AuthService) *handlers {
	return &handlers{
		logger: logger.With("component", "rest_handlers"),
		games:  games,
		auth:   auth,
	}
}

func (that *handlers) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (that *handlers) CreateGame(c echo.Context) error {
	session, err := that.games.CreateGame(c.Request().Context())
	if err != nil {
		that.logger.Error("failed to create game", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse("failed to create game"))
	}

	return c.JSON(http.StatusCreated, session)
}

func (that *handlers) GetGame(c echo.Context) error {
	record, err := that.games.GetGame(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrGameNotFound) || errors.Is(err, usecase.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse("game not found"))
		}

		that.logger.Error("failed to get game", "error", err)

		return c.JSON(http.StatusInternalServerError, errorResponse("failed to get game"))
	}

	return c.JSON(http.StatusOK, gameResponse{
		GameID:   record.ID,
		Status:   record.Status.String(),
		Turn:     record.Turn,
		Deadline: record.Deadline,
		Wager:    record.Wager,
		BoardX:   record.BoardX,
		BoardO:   record.BoardO,
	})
}

func (that *handlers) StartGame(c echo.Context) error {
	gameID := c.Param("id")

	if _, err := that.sessionPlayer(c, gameID); err != nil {
		return that.unauthorized(c, err)
	}

	if err := that.games.StartGame(c.Request().Context(), gameID); err != nil {
		return that.gameError(c, "failed to start game", err)
	}

	return c.NoContent(http.StatusNoContent)
}

type moveRequest struct {
	Position int `json:"position"`
}

func (that *handlers) PlayAction(c echo.Context) error {
	gameID := c.Param("id")

	playerID, err := that.sessionPlayer(c, gameID)
	if err != nil {
		return that.unauthorized(c, err)
	}

	var req moveRequest
	if err = c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
	}

	if err = that.games.PlayAction(c.Request().Context(), gameID, playerID, req.Position); err != nil {
		return that.gameError(c, "failed to play move", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (that *handlers) WinRefund(c echo.Context) error {
	gameID := c.Param("id")

	playerID, err := that.sessionPlayer(c, gameID)
	if err != nil {
		return that.unauthorized(c, err)
	}

	if err = that.games.WinRefund(c.Request().Context(), gameID, playerID); err != nil {
		return that.gameError(c, "failed to refund winner", err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (that *handlers) TieRefund(c echo.Context) error {
	gameID := c.Param("id")

	if _, err := that.sessionPlayer(c, gameID); err != nil {
		return that.unauthorized(c, err)
	}

	if err := that.games.TieRefund(c.Request().Context(), gameID); err != nil {
		return that.gameError(c, "failed to refund tie", err)
	}

	return c.NoContent(http.StatusNoContent)
}

// sessionPlayer resolves the bearer token to "X" or "O" within the game's
// session. The token's address must be one of the two players.
func (that *handlers) sessionPlayer(c echo.Context, gameID string) (string, error) {
	addr, err := that.tokenAddress(c)
	if err != nil {
		return "", err
	}

	session, err := that.games.Session(gameID)
	if err != nil {
		return "", err
	}

	switch addr {
	case session.PlayerX:
		return "X", nil
	case session.PlayerO:
		return "O", nil
	default:
		return "", apperror.ErrUnauthorized
	}
}

func (that *handlers) tokenAddress(c echo.Context) (entity.Address, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return entity.ZeroAddress, apperror.ErrUnauthorized
	}

	addr, err := that.auth.ParseToken(token)
	if err != nil {
		return entity.ZeroAddress, apperror.ErrUnauthorized
	}

	return addr, nil
}

func (that *handlers) unauthorized(c echo.Context, err error) error {
	if errors.Is(err, usecase.ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse("game not found"))
	}

	return c.JSON(http.StatusUnauthorized, errorResponse("unauthorized"))
}

// gameError maps rejected groups and lifecycle misuse onto 4xx codes;
// everything else is a 500.
func (that *handlers) gameError(c echo.Context, msg string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound), errors.Is(err, repository.ErrGameNotFound):
		return c.JSON(http.StatusNotFound, errorResponse("game not found"))
	case errors.Is(err, orchestrator.ErrAlreadyStarted),
		errors.Is(err, orchestrator.ErrNotDeployed),
		errors.Is(err, orchestrator.ErrInvalidPlayer),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrDeadlinePassed),
		errors.Is(err, apperror.ErrNoRefundDue),
		errors.Is(err, apperror.ErrPlayersAlreadySet),
		errors.Is(err, apperror.ErrInsufficientFunds):
		return c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		that.logger.Error(msg, "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse(msg))
	}
}

type gameResponse struct {
	GameID   string         `json:"game_id"`
	Status   string         `json:"status"`
	Turn     entity.Address `json:"turn"`
	Deadline int64          `json:"deadline"`
	Wager    uint64         `json:"wager"`
	BoardX   uint64         `json:"board_x"`
	BoardO   uint64         `json:"board_o"`
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
