package escrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerplay/tictactoe-wager/internal/apperror"
	"github.com/ledgerplay/tictactoe-wager/internal/entity"
)

const (
	pairedAppID = "game-1"
	feeCeiling  = uint64(1000)
)

var (
	escrowAddr = entity.Address("escrow-1")
	winner     = entity.Address("player-x")
	loser      = entity.Address("player-o")
	attacker   = entity.Address("attacker")
)

func refundCall(appID string) entity.Transaction {
	return entity.Transaction{Type: entity.TxnAppCall, Sender: winner, AppID: appID, Args: []string{entity.ActionRefund}}
}

func escrowPayment(receiver entity.Address, amount, fee uint64) entity.Transaction {
	return entity.Transaction{Type: entity.TxnPayment, Sender: escrowAddr, Receiver: receiver, Amount: amount, Fee: fee}
}

func TestGuard_Authorize(t *testing.T) {
	guard := NewGuard(pairedAppID, feeCeiling)

	t.Run("Win payout alongside a call to the paired app is authorized", func(t *testing.T) {
		// Given: a group of two, call first, clean payment second
		group := entity.NewGroupView([]entity.Transaction{
			refundCall(pairedAppID),
			escrowPayment(winner, 2_000_000, 1000),
		})

		// Then: the guard releases the funds
		require.NoError(t, guard.Authorize(group))
	})

	t.Run("Tie payout of three transactions is authorized", func(t *testing.T) {
		group := entity.NewGroupView([]entity.Transaction{
			refundCall(pairedAppID),
			escrowPayment(winner, 1_000_000, 1000),
			escrowPayment(loser, 1_000_000, 1000),
		})

		require.NoError(t, guard.Authorize(group))
	})

	t.Run("Group bound to another app is rejected", func(t *testing.T) {
		// Given: a replayed group whose call targets a different game
		group := entity.NewGroupView([]entity.Transaction{
			refundCall("game-2"),
			escrowPayment(winner, 2_000_000, 1000),
		})

		// Then: the cross-game replay is refused
		assert.ErrorIs(t, guard.Authorize(group), apperror.ErrWrongApp)
	})

	t.Run("Group led by a payment is rejected", func(t *testing.T) {
		group := entity.NewGroupView([]entity.Transaction{
			escrowPayment(winner, 2_000_000, 1000),
			escrowPayment(winner, 2_000_000, 1000),
		})

		assert.ErrorIs(t, guard.Authorize(group), apperror.ErrWrongApp)
	})

	t.Run("Wrong group sizes are rejected", func(t *testing.T) {
		solo := entity.NewGroupView([]entity.Transaction{refundCall(pairedAppID)})
		assert.ErrorIs(t, guard.Authorize(solo), apperror.ErrBadGroupShape)

		four := entity.NewGroupView([]entity.Transaction{
			refundCall(pairedAppID),
			escrowPayment(winner, 500_000, 1000),
			escrowPayment(winner, 500_000, 1000),
			escrowPayment(winner, 500_000, 1000),
		})
		assert.ErrorIs(t, guard.Authorize(four), apperror.ErrBadGroupShape)
	})

	t.Run("Excessive fee is rejected", func(t *testing.T) {
		group := entity.NewGroupView([]entity.Transaction{
			refundCall(pairedAppID),
			escrowPayment(winner, 2_000_000, feeCeiling+1),
		})

		assert.ErrorIs(t, guard.Authorize(group), apperror.ErrUnsafeTransfer)
	})

	t.Run("Close-out field drains the account and is rejected", func(t *testing.T) {
		payout := escrowPayment(winner, 2_000_000, 1000)
		payout.CloseTo = attacker
		group := entity.NewGroupView([]entity.Transaction{refundCall(pairedAppID), payout})

		assert.ErrorIs(t, guard.Authorize(group), apperror.ErrUnsafeTransfer)
	})

	t.Run("Rekey field takes the account over and is rejected", func(t *testing.T) {
		payout := escrowPayment(winner, 2_000_000, 1000)
		payout.RekeyTo = attacker
		group := entity.NewGroupView([]entity.Transaction{refundCall(pairedAppID), payout})

		assert.ErrorIs(t, guard.Authorize(group), apperror.ErrUnsafeTransfer)
	})

	t.Run("Unsafe second payment in a tie group is rejected", func(t *testing.T) {
		second := escrowPayment(loser, 1_000_000, 1000)
		second.RekeyTo = attacker
		group := entity.NewGroupView([]entity.Transaction{
			refundCall(pairedAppID),
			escrowPayment(winner, 1_000_000, 1000),
			second,
		})

		assert.ErrorIs(t, guard.Authorize(group), apperror.ErrUnsafeTransfer)
	})
}
