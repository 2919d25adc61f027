package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ledgerplay/tictactoe-wager/internal/entity"
	"github.com/ledgerplay/tictactoe-wager/internal/orchestrator"
	"github.com/ledgerplay/tictactoe-wager/internal/service"
)

var ErrSessionNotFound = errors.New("game session not found")

// GameSession is what the API hands back when a game is created: the
// parties' addresses plus one bearer token per player.
type GameSession struct {
	GameID  string         `json:"game_id"`
	Escrow  entity.Address `json:"escrow"`
	PlayerX entity.Address `json:"player_x"`
	PlayerO entity.Address `json:"player_o"`
	TokenX  string         `json:"token_x"`
	TokenO  string         `json:"token_o"`
}

// PlayerAddress maps "X"/"O" onto the session's party.
func (that *GameSession) PlayerAddress(playerID string) (entity.Address, error) {
	switch playerID {
	case "X":
		return that.PlayerX, nil
	case "O":
		return that.PlayerO, nil
	default:
		return entity.ZeroAddress, orchestrator.ErrInvalidPlayer
	}
}

type GameUseCase interface {
	CreateGame(ctx context.Context) (*GameSession, error)
	Session(gameID string) (*GameSession, error)
	StartGame(ctx context.Context, gameID string) error
	PlayAction(ctx context.Context, gameID, playerID string, position int) error
	WinRefund(ctx context.Context, gameID, playerID string) error
	TieRefund(ctx context.Context, gameID string) error
	GetGame(ctx context.Context, gameID string) (*entity.GameRecord, error)
}

// ledgerService is the slice of the ledger the manager needs beyond what
// each orchestrator already talks to.
type ledgerService interface {
	Deploy(ctx context.Context, signed entity.SignedTransaction) (string, entity.Address, error)
	SubmitGroup(ctx context.Context, signed []entity.SignedTransaction) error
	Fund(ctx context.Context, addr entity.Address, amount uint64) error
	GetGame(ctx context.Context, appID string) (*entity.GameRecord, error)
}

// Funding is the demo economics of one hosted game: how much each fresh
// account is seeded with and how much extra the escrow gets to cover
// payout fees.
type Funding struct {
	Wager      uint64
	TxnFee     uint64
	SeedAmount uint64
	EscrowFees uint64
}

type gameManager struct {
	logger *slog.Logger

	ledger  ledgerService
	auth    service.AuthService
	funding Funding

	mu       sync.RWMutex
	games    map[string]*orchestrator.Orchestrator
	sessions map[string]*GameSession
}

func NewGameManager(logger *slog.Logger, ledger ledgerService, auth service.AuthService, funding Funding) GameUseCase {
	return &gameManager{
		logger:   logger.With("component", "game_manager"),
		ledger:   ledger,
		auth:     auth,
		funding:  funding,
		games:    make(map[string]*orchestrator.Orchestrator),
		sessions: make(map[string]*GameSession),
	}
}

// CreateGame generates fresh accounts for the three parties, seeds them
// from the faucet, deploys a game instance and tops up its escrow for
// fees. The returned session carries one bearer token per player.
func (that *gameManager) CreateGame(ctx context.Context) (*GameSession, error) {
	creator, err := entity.NewAccount()
	if err != nil {
		return nil, err
	}

	playerX, err := entity.NewAccount()
	if err != nil {
		return nil, err
	}

	playerO, err := entity.NewAccount()
	if err != nil {
		return nil, err
	}

	for _, addr := range []entity.Address{creator.Address, playerX.Address, playerO.Address} {
		if err = that.ledger.Fund(ctx, addr, that.funding.SeedAmount); err != nil {
			return nil, fmt.Errorf("failed to seed account: %w", err)
		}
	}

	orch := orchestrator.New(that.logger, that.ledger, creator, playerX, playerO, that.funding.Wager, that.funding.TxnFee)

	if err = orch.Deploy(ctx); err != nil {
		return nil, err
	}

	if err = orch.FundEscrow(ctx, that.funding.EscrowFees); err != nil {
		return nil, err
	}

	tokenX, err := that.auth.GenerateToken(playerX.Address)
	if err != nil {
		return nil, err
	}

	tokenO, err := that.auth.GenerateToken(playerO.Address)
	if err != nil {
		return nil, err
	}

	session := &GameSession{
		GameID:  orch.AppID(),
		Escrow:  orch.EscrowAddress(),
		PlayerX: playerX.Address,
		PlayerO: playerO.Address,
		TokenX:  tokenX,
		TokenO:  tokenO,
	}

	that.mu.Lock()
	that.games[session.GameID] = orch
	that.sessions[session.GameID] = session
	that.mu.Unlock()

	that.logger.Info("game created", "game_id", session.GameID)

	return session, nil
}

func (that *gameManager) Session(gameID string) (*GameSession, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[gameID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

func (that *gameManager) StartGame(ctx context.Context, gameID string) error {
	orch, err := that.orchestratorFor(gameID)
	if err != nil {
		return err
	}

	return orch.StartGame(ctx)
}

func (that *gameManager) PlayAction(ctx context.Context, gameID, playerID string, position int) error {
	orch, err := that.orchestratorFor(gameID)
	if err != nil {
		return err
	}

	return orch.PlayAction(ctx, playerID, position)
}

func (that *gameManager) WinRefund(ctx context.Context, gameID, playerID string) error {
	orch, err := that.orchestratorFor(gameID)
	if err != nil {
		return err
	}

	return orch.WinRefund(ctx, playerID)
}

func (that *gameManager) TieRefund(ctx context.Context, gameID string) error {
	orch, err := that.orchestratorFor(gameID)
	if err != nil {
		return err
	}

	return orch.TieRefund(ctx)
}

func (that *gameManager) GetGame(ctx context.Context, gameID string) (*entity.GameRecord, error) {
	record, err := that.ledger.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return record, nil
}

func (that *gameManager) orchestratorFor(gameID string) (*orchestrator.Orchestrator, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	orch, ok := that.games[gameID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	return orch, nil
}
