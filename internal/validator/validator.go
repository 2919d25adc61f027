// Package validator holds the on-ledger rules of one wager-backed
// tic-tac-toe instance. A call either fully applies its mutation to the
// game record or returns an error, in which case the ledger discards the
// whole enclosing group.
package validator

import (
	"strconv"
	"time"

	"github.com/ledgerplay/tictactoe-wager/internal/apperror"
	"github.com/ledgerplay/tictactoe-wager/internal/bitboard"
	"github.com/ledgerplay/tictactoe-wager/internal/entity"
)

type Validator struct {
	wager       uint64
	moveTimeout time.Duration
}

// New builds a validator with the platform constants: the fixed wager each
// player deposits and the duration a player gets to act before forfeiting.
func New(wager uint64, moveTimeout time.Duration) *Validator {
	return &Validator{
		wager:       wager,
		moveTimeout: moveTimeout,
	}
}

// Apply evaluates the app call at index 0 of the group against the record.
// The very first call to an instance initializes defaults and terminates,
// regardless of the requested action. The caller owns atomicity: on error
// no staged change may be kept.
func (that *Validator) Apply(record *entity.GameRecord, group entity.GroupView, now time.Time) error {
	if group.Len() == 0 || group.At(0).Type != entity.TxnAppCall {
		return apperror.ErrBadGroupShape
	}

	if !record.IsInitialized() {
		record.BoardX = 0
		record.BoardO = 0
		record.Status = entity.StatusActive
		record.Wager = that.wager

		return nil
	}

	call := group.At(0)

	switch call.Action() {
	case entity.ActionSetupPlayers:
		return that.setupPlayers(record, group, now)
	case entity.ActionMove:
		return that.playMove(record, group, now)
	case entity.ActionRefund:
		return that.moneyRefund(record, group, now)
	default:
		return apperror.ErrBadGroupShape
	}
}

// setupPlayers binds the two parties exactly once. The group must be the
// call plus two payments with identical receivers, each for the wager; the
// receiver becomes the escrow, the first payer moves first.
func (that *Validator) setupPlayers(record *entity.GameRecord, group entity.GroupView, now time.Time) error {
	if record.HasPlayers() {
		return apperror.ErrPlayersAlreadySet
	}

	if group.Len() != 3 {
		return apperror.ErrBadGroupShape
	}

	payX := group.At(1)
	payO := group.At(2)

	if payX.Type != entity.TxnPayment || payO.Type != entity.TxnPayment {
		return apperror.ErrBadGroupShape
	}

	if payX.Receiver != payO.Receiver {
		return apperror.ErrWrongReceiver
	}

	if payX.Amount != record.Wager || payO.Amount != record.Wager {
		return apperror.ErrWrongAmount
	}

	record.PlayerX = payX.Sender
	record.PlayerO = payO.Sender
	record.Turn = payX.Sender
	record.Escrow = payX.Receiver
	record.Deadline = now.Add(that.moveTimeout).Unix()

	return nil
}

// playMove marks one cell for the player whose turn it is. Moves never
// combine with other transactions.
func (that *Validator) playMove(record *entity.GameRecord, group entity.GroupView, now time.Time) error {
	if group.Len() != 1 {
		return apperror.ErrBadGroupShape
	}

	call := group.At(0)
	if len(call.Args) != 2 {
		return apperror.ErrBadGroupShape
	}

	pos, err := strconv.Atoi(call.Args[1])
	if err != nil || pos < 0 || pos > 8 {
		return apperror.ErrInvalidCell
	}

	if now.Unix() > record.Deadline {
		return apperror.ErrDeadlinePassed
	}

	if !record.IsActive() {
		return apperror.ErrGameFinished
	}

	if call.Sender != record.Turn {
		return apperror.ErrNotYourTurn
	}

	if bitboard.IsOccupied(record.BoardX, record.BoardO, pos) {
		return apperror.ErrCellOccupied
	}

	if call.Sender == record.PlayerX {
		record.BoardX = bitboard.Occupy(record.BoardX, pos)
		if bitboard.HasWon(record.BoardX) {
			record.Status = entity.StatusXWon
		} else {
			record.Turn = record.PlayerO
		}
	} else {
		record.BoardO = bitboard.Occupy(record.BoardO, pos)
		if bitboard.HasWon(record.BoardO) {
			record.Status = entity.StatusOWon
		} else {
			record.Turn = record.PlayerX
		}
	}

	// The fill check runs after the per-player win check and never
	// overwrites a terminal status, so a winning final move stays a win.
	if record.IsActive() && bitboard.IsFull(record.BoardX, record.BoardO) {
		record.Status = entity.StatusTie
	}

	return nil
}

// moneyRefund asserts the payout shape once the game has a result. The
// validator never moves funds itself; it only checks that the escrow's
// accompanying transfers match the outcome. The escrow guard authorizes
// the same group independently.
func (that *Validator) moneyRefund(record *entity.GameRecord, group entity.GroupView, now time.Time) error {
	if !record.HasPlayers() {
		return apperror.ErrNoRefundDue
	}

	timedOut := record.IsActive() && now.Unix() > record.Deadline

	// The player who was NOT due to move when time expired wins by
	// forfeit.
	xWon := record.Status == entity.StatusXWon || (timedOut && record.Turn == record.PlayerO)
	oWon := record.Status == entity.StatusOWon || (timedOut && record.Turn == record.PlayerX)
	tied := record.Status == entity.StatusTie

	switch {
	case xWon:
		if err := that.assertWinPayout(record, group, record.PlayerX); err != nil {
			return err
		}
		record.Status = entity.StatusXWon

		return nil
	case oWon:
		if err := that.assertWinPayout(record, group, record.PlayerO); err != nil {
			return err
		}
		record.Status = entity.StatusOWon

		return nil
	case tied:
		return that.assertTiePayout(record, group)
	default:
		return apperror.ErrNoRefundDue
	}
}

func (that *Validator) assertWinPayout(record *entity.GameRecord, group entity.GroupView, winner entity.Address) error {
	if group.Len() != 2 {
		return apperror.ErrBadGroupShape
	}

	return assertPayment(group.At(1), record.Escrow, winner, 2*record.Wager)
}

func (that *Validator) assertTiePayout(record *entity.GameRecord, group entity.GroupView) error {
	if group.Len() != 3 {
		return apperror.ErrBadGroupShape
	}

	if err := assertPayment(group.At(1), record.Escrow, record.PlayerX, record.Wager); err != nil {
		return err
	}

	return assertPayment(group.At(2), record.Escrow, record.PlayerO, record.Wager)
}

func assertPayment(txn entity.Transaction, sender, receiver entity.Address, amount uint64) error {
	if txn.Type != entity.TxnPayment {
		return apperror.ErrBadGroupShape
	}

	if txn.Sender != sender {
		return apperror.ErrWrongSender
	}

	if txn.Receiver != receiver {
		return apperror.ErrWrongReceiver
	}

	if txn.Amount != amount {
		return apperror.ErrWrongAmount
	}

	return nil
}
