package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerplay/tictactoe-wager/internal/entity"
	"github.com/ledgerplay/tictactoe-wager/internal/ledger"
	"github.com/ledgerplay/tictactoe-wager/internal/validator"
	"github.com/ledgerplay/tictactoe-wager/testing/memstore"
)

const (
	wager      = uint64(1_000_000)
	fee        = uint64(1000)
	feeCeiling = uint64(1000)
	timeout    = 2 * time.Minute
)

type fixture struct {
	orchestrator *Orchestrator
	ledger       *ledger.Ledger
	clock        *memstore.Clock

	creator *entity.Account
	playerX *entity.Account
	playerO *entity.Account
}

// newFixture wires an orchestrator against a real ledger over in-memory
// storage, with every party funded.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	clock := memstore.NewClock(time.Unix(1_700_000_000, 0))

	ledgerInstance := ledger.New(
		logger,
		memstore.NewGameStore(),
		memstore.NewAccountStore(),
		memstore.NewArchiveStore(),
		validator.New(wager, timeout),
		feeCeiling,
		clock,
	)

	creator, err := entity.NewAccount()
	require.NoError(t, err)
	playerX, err := entity.NewAccount()
	require.NoError(t, err)
	playerO, err := entity.NewAccount()
	require.NoError(t, err)

	for _, addr := range []entity.Address{creator.Address, playerX.Address, playerO.Address} {
		require.NoError(t, ledgerInstance.Fund(ctx, addr, 2*wager))
	}

	return &fixture{
		orchestrator: New(logger, ledgerInstance, creator, playerX, playerO, wager, fee),
		ledger:       ledgerInstance,
		clock:        clock,
		creator:      creator,
		playerX:      playerX,
		playerO:      playerO,
	}
}

// started returns a fixture after deploy, escrow funding and setup.
func started(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	fx := newFixture(t)

	require.NoError(t, fx.orchestrator.Deploy(ctx))
	require.NoError(t, fx.orchestrator.FundEscrow(ctx, 100_000))
	require.NoError(t, fx.orchestrator.StartGame(ctx))

	return fx
}

func (that *fixture) balance(t *testing.T, addr entity.Address) uint64 {
	t.Helper()

	balance, err := that.ledger.Balance(context.Background(), addr)
	require.NoError(t, err)

	return balance
}

func (that *fixture) record(t *testing.T) *entity.GameRecord {
	t.Helper()

	record, err := that.ledger.GetGame(context.Background(), that.orchestrator.AppID())
	require.NoError(t, err)

	return record
}

func TestOrchestrator_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("Operations before deploy are refused", func(t *testing.T) {
		fx := newFixture(t)

		assert.ErrorIs(t, fx.orchestrator.StartGame(ctx), ErrNotDeployed)
		assert.ErrorIs(t, fx.orchestrator.PlayAction(ctx, "X", 0), ErrNotDeployed)
		assert.ErrorIs(t, fx.orchestrator.WinRefund(ctx, "X"), ErrNotDeployed)
		assert.ErrorIs(t, fx.orchestrator.TieRefund(ctx), ErrNotDeployed)
	})

	t.Run("Deploy twice is refused", func(t *testing.T) {
		fx := newFixture(t)
		require.NoError(t, fx.orchestrator.Deploy(ctx))

		assert.ErrorIs(t, fx.orchestrator.Deploy(ctx), ErrAlreadyDeployed)
	})

	t.Run("StartGame twice is refused client-side", func(t *testing.T) {
		fx := started(t)

		assert.ErrorIs(t, fx.orchestrator.StartGame(ctx), ErrAlreadyStarted)
	})

	t.Run("Unknown player id is refused", func(t *testing.T) {
		fx := started(t)

		assert.ErrorIs(t, fx.orchestrator.PlayAction(ctx, "Z", 0), ErrInvalidPlayer)
	})
}

func TestOrchestrator_WinScenario(t *testing.T) {
	ctx := context.Background()

	t.Run("Row win pays the winner twice the wager", func(t *testing.T) {
		// Given: a started game
		fx := started(t)

		// When: X builds the top row with O answering below
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "X", 0))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "O", 3))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "X", 1))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "O", 4))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "X", 2))

		// Then: the game is won by X
		assert.Equal(t, entity.StatusXWon, fx.record(t).Status)

		// And: a refund claimed for the loser is rejected as a whole
		assert.Error(t, fx.orchestrator.WinRefund(ctx, "O"))

		// And: the winner's refund moves twice the wager out of escrow
		before := fx.balance(t, fx.playerX.Address)
		require.NoError(t, fx.orchestrator.WinRefund(ctx, "X"))
		assert.Equal(t, before+2*wager, fx.balance(t, fx.playerX.Address))
	})

	t.Run("Moves after the win are rejected", func(t *testing.T) {
		fx := started(t)
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "X", 0))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "O", 3))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "X", 1))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "O", 4))
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "X", 2))

		assert.Error(t, fx.orchestrator.PlayAction(ctx, "O", 5))
	})
}

func TestOrchestrator_TieScenario(t *testing.T) {
	ctx := context.Background()

	t.Run("Full board without a line splits the pot", func(t *testing.T) {
		// Given: a started game played to a draw
		fx := started(t)

		moves := []struct {
			player   string
			position int
		}{
			{"X", 0}, {"O", 1}, {"X", 2}, {"O", 4}, {"X", 3},
			{"O", 5}, {"X", 7}, {"O", 6}, {"X", 8},
		}
		for _, move := range moves {
			require.NoError(t, fx.orchestrator.PlayAction(ctx, move.player, move.position))
		}

		require.Equal(t, entity.StatusTie, fx.record(t).Status)

		// When: refunding the tie
		xBefore := fx.balance(t, fx.playerX.Address)
		oBefore := fx.balance(t, fx.playerO.Address)
		require.NoError(t, fx.orchestrator.TieRefund(ctx))

		// Then: each player gets their wager back
		assert.Equal(t, xBefore+wager, fx.balance(t, fx.playerX.Address))
		assert.Equal(t, oBefore+wager, fx.balance(t, fx.playerO.Address))
	})

	t.Run("Win refund on a tied game is rejected", func(t *testing.T) {
		fx := started(t)
		moves := []struct {
			player   string
			position int
		}{
			{"X", 0}, {"O", 1}, {"X", 2}, {"O", 4}, {"X", 3},
			{"O", 5}, {"X", 7}, {"O", 6}, {"X", 8},
		}
		for _, move := range moves {
			require.NoError(t, fx.orchestrator.PlayAction(ctx, move.player, move.position))
		}

		assert.Error(t, fx.orchestrator.WinRefund(ctx, "X"))
	})
}

func TestOrchestrator_TimeoutScenario(t *testing.T) {
	ctx := context.Background()

	t.Run("Player not due to move collects after the deadline", func(t *testing.T) {
		// Given: X moved, O never answered and the deadline passed
		fx := started(t)
		require.NoError(t, fx.orchestrator.PlayAction(ctx, "X", 0))
		fx.clock.Advance(timeout + time.Second)

		// Then: a late move by O is rejected
		assert.Error(t, fx.orchestrator.PlayAction(ctx, "O", 4))

		// And: the refund goes to X, not to O
		assert.Error(t, fx.orchestrator.WinRefund(ctx, "O"))

		before := fx.balance(t, fx.playerX.Address)
		require.NoError(t, fx.orchestrator.WinRefund(ctx, "X"))
		assert.Equal(t, before+2*wager, fx.balance(t, fx.playerX.Address))
		assert.Equal(t, entity.StatusXWon, fx.record(t).Status)
	})
}
